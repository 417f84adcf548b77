package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go/jetstream"
)

// AgentSnapshot is the telemetry view of the agent at one tick
type AgentSnapshot struct {
	MatchID      string                   `json:"matchId"`
	Tick         int64                    `json:"tick"`
	Mode         Mode                     `json:"mode"`
	Phase        Phase                    `json:"phase"`
	AngleToAvoid float64                  `json:"angleToAvoid"`
	Position     Point                    `json:"position"`
	Last         Point                    `json:"last"`
	Next         Point                    `json:"next"`
	Energy       float64                  `json:"energy"`
	Target       string                   `json:"target,omitempty"`
	ShotsFired   int                      `json:"shotsFired"`
	ShotsAborted int                      `json:"shotsAborted"`
	Opponents    map[string]OpponentState `json:"opponents"`
}

// MatchResult summarizes a finished match
type MatchResult struct {
	MatchID     string   `json:"matchId"`
	Ticks       int64    `json:"ticks"`
	Winner      string   `json:"winner,omitempty"`
	Survivors   []string `json:"survivors"`
	ShotsFired  int      `json:"shotsFired"`
	ShotsHit    int      `json:"shotsHit"`
	DamageDealt float64  `json:"damageDealt"`
	DamageTaken float64  `json:"damageTaken"`
}

// Manager keeps the latest agent snapshot and mirrors it into a KV bucket.
// A nil bucket keeps telemetry in memory only.
type Manager struct {
	matchID       string
	state         AgentSnapshot
	mutex         sync.RWMutex
	kv            jetstream.KeyValue
	ctx           context.Context
	logger        *log.Logger
	snapshotEvery int64
	lastSaved     int64
	saves         int
}

// NewManager creates a manager for one match and stores its empty initial state
func NewManager(ctx context.Context, kv jetstream.KeyValue, matchID string, snapshotEvery int64, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.Default()
	}
	if snapshotEvery <= 0 {
		snapshotEvery = 1
	}

	manager := &Manager{
		matchID: matchID,
		state: AgentSnapshot{
			MatchID:   matchID,
			Opponents: make(map[string]OpponentState),
		},
		kv:            kv,
		ctx:           ctx,
		logger:        logger.WithPrefix("telemetry"),
		snapshotEvery: snapshotEvery,
		lastSaved:     -snapshotEvery,
	}

	if err := manager.saveState(); err != nil {
		return nil, fmt.Errorf("failed to save initial agent state: %w", err)
	}

	manager.logger.Debug("telemetry initialized", "match", matchID, "every", snapshotEvery)
	return manager, nil
}

// MatchID returns the id this manager writes under
func (m *Manager) MatchID() string {
	return m.matchID
}

// GetState returns a copy of the latest snapshot
func (m *Manager) GetState() AgentSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return copySnapshot(m.state)
}

// Record stores snap and writes it to the bucket when the snapshot interval has elapsed
func (m *Manager) Record(snap AgentSnapshot) error {
	m.mutex.Lock()
	m.state = copySnapshot(snap)
	due := snap.Tick-m.lastSaved >= m.snapshotEvery
	if due {
		m.lastSaved = snap.Tick
	}
	m.mutex.Unlock()

	if !due {
		return nil
	}
	return m.saveState()
}

// Flush writes the latest snapshot regardless of the interval
func (m *Manager) Flush() error {
	return m.saveState()
}

// Saves returns how many snapshots reached the bucket
func (m *Manager) Saves() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.saves
}

// SaveResult stores the match summary next to the snapshots
func (m *Manager) SaveResult(result MatchResult) error {
	if m.kv == nil {
		return nil
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("error marshaling match result: %w", err)
	}
	if _, err := m.kv.Put(m.ctx, m.resultKey(), resultJSON); err != nil {
		m.logger.Error("error saving match result", "err", err)
		return fmt.Errorf("error saving match result to KV: %w", err)
	}
	return nil
}

// LoadState reads the last stored snapshot back from the bucket
func (m *Manager) LoadState() (AgentSnapshot, error) {
	var snap AgentSnapshot
	if m.kv == nil {
		return m.GetState(), nil
	}

	entry, err := m.kv.Get(m.ctx, m.currentKey())
	if err != nil {
		return snap, fmt.Errorf("error loading agent state: %w", err)
	}
	if err := json.Unmarshal(entry.Value(), &snap); err != nil {
		return snap, fmt.Errorf("error decoding agent state: %w", err)
	}
	return snap, nil
}

// LoadResult reads the stored match summary
func (m *Manager) LoadResult() (MatchResult, error) {
	var result MatchResult
	if m.kv == nil {
		return result, fmt.Errorf("telemetry bucket not configured")
	}

	entry, err := m.kv.Get(m.ctx, m.resultKey())
	if err != nil {
		return result, fmt.Errorf("error loading match result: %w", err)
	}
	if err := json.Unmarshal(entry.Value(), &result); err != nil {
		return result, fmt.Errorf("error decoding match result: %w", err)
	}
	return result, nil
}

// WatchState creates a watcher for snapshot changes.
// Returns the KeyWatcher directly so caller can use its Updates() channel
func (m *Manager) WatchState(ctx context.Context) (jetstream.KeyWatcher, error) {
	if m.kv == nil {
		return nil, fmt.Errorf("telemetry bucket not configured")
	}

	watcher, err := m.kv.Watch(ctx, m.currentKey(), jetstream.UpdatesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to create KV watcher: %w", err)
	}
	return watcher, nil
}

func (m *Manager) currentKey() string {
	return m.matchID + ".current"
}

func (m *Manager) resultKey() string {
	return m.matchID + ".result"
}

func (m *Manager) saveState() error {
	if m.kv == nil {
		return nil
	}

	// Don't hold the lock during the KV round trip
	m.mutex.RLock()
	stateJSON, err := json.Marshal(m.state)
	m.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("error marshaling agent state: %w", err)
	}

	if _, err := m.kv.Put(m.ctx, m.currentKey(), stateJSON); err != nil {
		m.logger.Warn("error saving agent state", "err", err)
		return fmt.Errorf("error saving agent state to KV: %w", err)
	}

	m.mutex.Lock()
	m.saves++
	m.mutex.Unlock()
	return nil
}

func copySnapshot(snap AgentSnapshot) AgentSnapshot {
	opponents := make(map[string]OpponentState, len(snap.Opponents))
	for name, o := range snap.Opponents {
		opponents[name] = o
	}
	snap.Opponents = opponents
	return snap
}
