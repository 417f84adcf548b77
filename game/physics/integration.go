package physics

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/arena-duel/game"
)

const heartbeatEvery = 500

// Match connects the agent to the world: each tick it feeds the agent its
// own state, hands the agent's commands to the host, drives the NPCs and
// delivers the resulting events
type Match struct {
	id        string
	agentName string
	agent     *game.Agent
	world     *World
	npcs      *NPCController
	telemetry *game.Manager
	maxTicks  int64
	logger    *log.Logger
}

// NewMatch wires a match together. telemetry may be nil.
func NewMatch(id, agentName string, agent *game.Agent, world *World, npcs *NPCController, telemetry *game.Manager, maxTicks int64, logger *log.Logger) *Match {
	if logger == nil {
		logger = log.Default()
	}
	return &Match{
		id:        id,
		agentName: agentName,
		agent:     agent,
		world:     world,
		npcs:      npcs,
		telemetry: telemetry,
		maxTicks:  maxTicks,
		logger:    logger.With("match", id),
	}
}

// Run plays until the agent dies, every NPC dies, the tick limit is reached
// or ctx is cancelled
func (m *Match) Run(ctx context.Context) (game.MatchResult, error) {
	m.logger.Info("match started", "agent", m.agentName, "npcs", len(m.npcs.GetActiveNPCs()), "maxTicks", m.maxTicks)

	for m.maxTicks <= 0 || m.world.Tick() < m.maxTicks {
		if err := ctx.Err(); err != nil {
			return m.result(), fmt.Errorf("match %s interrupted at tick %d: %w", m.id, m.world.Tick(), err)
		}
		if err := m.step(); err != nil {
			return m.result(), err
		}
		if m.over() {
			break
		}
		if m.world.Tick()%heartbeatEvery == 0 {
			m.logger.Debug("heartbeat", "tick", m.world.Tick(), "alive", m.world.AliveNames())
		}
	}

	result := m.result()
	if m.telemetry != nil {
		if err := m.telemetry.Flush(); err != nil {
			m.logger.Error("failed to flush telemetry", "err", err)
		}
		if err := m.telemetry.SaveResult(result); err != nil {
			m.logger.Error("failed to save result", "err", err)
		}
	}

	m.logger.Info("match finished",
		"ticks", result.Ticks,
		"winner", result.Winner,
		"shotsFired", result.ShotsFired,
		"shotsHit", result.ShotsHit)
	return result, nil
}

// step runs one full tick
func (m *Match) step() error {
	self, err := m.world.SelfState(m.agentName)
	if err != nil {
		return err
	}

	step := m.agent.Tick(self)
	if err := m.world.Order(m.agentName, step.Commands); err != nil {
		return fmt.Errorf("failed to order agent commands: %w", err)
	}
	if err := m.npcs.Update(); err != nil {
		return fmt.Errorf("failed to update NPCs: %w", err)
	}

	events := m.world.Step()
	for _, ev := range events[m.agentName] {
		m.agent.Dispatch(ev)
	}

	if m.telemetry != nil {
		if err := m.telemetry.Record(m.agent.Snapshot(m.id, m.world.Tick())); err != nil {
			m.logger.Warn("failed to record snapshot", "tick", m.world.Tick(), "err", err)
		}
	}
	return nil
}

func (m *Match) over() bool {
	return !m.world.Alive(m.agentName) || len(m.npcs.GetActiveNPCs()) == 0
}

func (m *Match) result() game.MatchResult {
	survivors := m.world.AliveNames()
	result := game.MatchResult{
		MatchID:   m.id,
		Ticks:     m.world.Tick(),
		Survivors: survivors,
	}
	if len(survivors) == 1 {
		result.Winner = survivors[0]
	}
	if stats, err := m.world.Stats(m.agentName); err == nil {
		result.ShotsFired = stats.ShotsFired
		result.ShotsHit = stats.ShotsHit
		result.DamageDealt = stats.DamageDealt
		result.DamageTaken = stats.DamageTaken
	}
	return result
}
