package game

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// AgentTuning holds the agent loop constants
type AgentTuning struct {
	// ScanTimeout bounds a scanning cycle when nothing interrupts it
	ScanTimeout int64
	// RadarStep is the radar sweep issued every scanning tick
	RadarStep float64
	// CollisionOffset is how far a rammed opponent's centre is placed from ours
	CollisionOffset float64
}

// DefaultAgentTuning returns the canonical loop constants
func DefaultAgentTuning() AgentTuning {
	return AgentTuning{
		ScanTimeout:     50,
		RadarStep:       45,
		CollisionOffset: 36,
	}
}

// Phase is where the agent is in its scan/move cycle
type Phase uint8

const (
	PhaseScanning Phase = iota
	PhaseMoving
)

func (p Phase) String() string {
	if p == PhaseMoving {
		return "moving"
	}
	return "scanning"
}

// MarshalText lets snapshots carry the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name written by MarshalText
func (p *Phase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "scanning":
		*p = PhaseScanning
	case "moving":
		*p = PhaseMoving
	default:
		return fmt.Errorf("unknown phase %q", text)
	}
	return nil
}

// Decision is the outcome of one tick
type Decision uint8

const (
	// DecisionScan keeps sweeping the radar
	DecisionScan Decision = iota
	// DecisionMove plans a destination and starts driving to it
	DecisionMove
	// DecisionTravel waits for the host to finish the current leg
	DecisionTravel
)

func (d Decision) String() string {
	switch d {
	case DecisionScan:
		return "scan"
	case DecisionMove:
		return "move"
	case DecisionTravel:
		return "travel"
	}
	return "unknown"
}

// Step is what the agent hands back to the host for one tick
type Step struct {
	Decision Decision
	Commands []Command
}

// Agent is the per-match decision loop. The host delivers events, then
// calls Tick exactly once per simulated tick.
type Agent struct {
	logger   *log.Logger
	tuning   AgentTuning
	registry *Registry
	planner  *Planner
	solver   FiringSolver

	mode         Mode
	angleToAvoid float64
	phase        Phase
	scanStart    int64
	started      bool

	current Point
	last    Point
	next    Point
	energy  float64

	pending []Command

	shotsFired   int
	shotsAborted int
}

// NewAgent creates an agent with a cold opponent model
func NewAgent(logger *log.Logger, tuning AgentTuning, planner *Planner, solver FiringSolver) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{
		logger:   logger.WithPrefix("agent"),
		tuning:   tuning,
		registry: NewRegistry(),
		planner:  planner,
		solver:   solver,
	}
}

// Dispatch routes a host event to its handler
func (a *Agent) Dispatch(ev GameEvent) {
	switch data := ev.Data.(type) {
	case ScanEvent:
		a.OnScannedRobot(data)
	case HitByBulletEvent:
		a.OnHitByBullet(data)
	case HitRobotEvent:
		a.OnHitRobot(data)
	case RobotDeathEvent:
		a.OnRobotDeath(data)
	default:
		a.logger.Debug("ignoring event", "type", ev.Type, "tick", ev.Tick)
	}
}

// OnScannedRobot updates the registry and fires at the target when the gun is cool
func (a *Agent) OnScannedRobot(e ScanEvent) {
	opponent := a.registry.Observe(e)

	if a.registry.IsTarget(opponent) && e.Self.GunHeat == 0 {
		a.aimAndFire(e.Self, opponent)
	}
}

func (a *Agent) aimAndFire(self SelfState, target *Opponent) {
	solution, ok := a.solver.Solve(self.Position, self.GunHeading, target, self.Arena)
	if ok {
		a.pending = append(a.pending, solution.Commands()...)
		a.shotsFired++
		a.logger.Debug("firing",
			"target", target.Name(),
			"power", solution.Power,
			"gunTurn", solution.GunTurn,
			"circular", solution.Circular,
			"predicted", solution.Predicted)
	} else {
		a.shotsAborted++
		a.logger.Debug("shot aborted, prediction outside arena", "target", target.Name())
	}
	a.mode = ModeFired
}

// OnHitByBullet interrupts scanning and remembers the line the bullet came along
func (a *Agent) OnHitByBullet(e HitByBulletEvent) {
	a.mode = ModeHitByBullet
	a.angleToAvoid = NormalizeAbsolute(e.Heading)
	a.logger.Debug("hit by bullet", "from", e.Name, "heading", a.angleToAvoid)
}

// OnHitRobot interrupts scanning and retargets the robot we are touching
func (a *Agent) OnHitRobot(e HitRobotEvent) {
	bearing := NormalizeAbsolute(e.Self.Heading + e.Bearing)
	a.mode = ModeHitRobot
	a.angleToAvoid = bearing

	if opponent, ok := a.registry.Lookup(e.Name); ok {
		opponent.CollisionUpdate(Project(e.Self.Position, a.tuning.CollisionOffset, bearing), bearing)
		a.registry.SetTarget(opponent)
	}
	a.logger.Debug("hit robot", "name", e.Name, "bearing", bearing)
}

// OnRobotDeath marks the robot dead
func (a *Agent) OnRobotDeath(e RobotDeathEvent) {
	if !a.registry.Kill(e.Name) {
		a.logger.Debug("death of unseen robot", "name", e.Name)
		return
	}
	a.logger.Info("opponent destroyed", "name", e.Name)
}

// Tick advances the scan/move state machine by one tick
func (a *Agent) Tick(self SelfState) Step {
	a.current = self.Position
	a.energy = self.Energy
	if !a.started {
		a.started = true
		a.last = self.Position
		a.next = self.Position
		a.restartScan(self.Tick)
	}

	step := Step{Commands: a.pending}
	a.pending = nil

	if a.phase == PhaseMoving {
		if self.Moving {
			step.Decision = DecisionTravel
			return step
		}
		a.restartScan(self.Tick)
	}

	if a.mode == ModeScanning && self.Tick-a.scanStart < a.tuning.ScanTimeout {
		step.Decision = DecisionScan
		step.Commands = append(step.Commands, Command{Kind: CommandRotateRadar, Value: a.tuning.RadarStep})
		return step
	}

	step.Decision = DecisionMove
	step.Commands = append(step.Commands, a.beginMove(self)...)
	return step
}

func (a *Agent) restartScan(tick int64) {
	a.mode = ModeScanning
	a.phase = PhaseScanning
	a.scanStart = tick
}

func (a *Agent) beginMove(self SelfState) []Command {
	a.next = a.planner.Next(PlanRequest{
		Mode:         a.mode,
		AngleToAvoid: a.angleToAvoid,
		Current:      a.current,
		Last:         a.last,
		Previous:     a.next,
		Arena:        self.Arena,
		SelfEnergy:   self.Energy,
		Registry:     a.registry,
	})
	a.last = a.current
	a.phase = PhaseMoving

	move := PlanMove(a.current, self.Heading, a.next)
	a.logger.Debug("moving",
		"mode", a.mode,
		"tick", self.Tick,
		"to", a.next,
		"turn", move.Turn,
		"reverse", move.Reverse)
	return move.Commands()
}

func (a *Agent) Mode() Mode            { return a.mode }
func (a *Agent) AngleToAvoid() float64 { return a.angleToAvoid }
func (a *Agent) Phase() Phase          { return a.phase }
func (a *Agent) Registry() *Registry   { return a.registry }
func (a *Agent) NextPosition() Point   { return a.next }
func (a *Agent) LastPosition() Point   { return a.last }
func (a *Agent) ShotsFired() int       { return a.shotsFired }
func (a *Agent) ShotsAborted() int     { return a.shotsAborted }

// Snapshot captures the agent state for telemetry
func (a *Agent) Snapshot(matchID string, tick int64) AgentSnapshot {
	snap := AgentSnapshot{
		MatchID:      matchID,
		Tick:         tick,
		Mode:         a.mode,
		Phase:        a.phase,
		AngleToAvoid: a.angleToAvoid,
		Position:     a.current,
		Last:         a.last,
		Next:         a.next,
		Energy:       a.energy,
		ShotsFired:   a.shotsFired,
		ShotsAborted: a.shotsAborted,
		Opponents:    make(map[string]OpponentState, a.registry.Len()),
	}
	if target := a.registry.Target(); target != nil {
		snap.Target = target.Name()
	}
	for _, o := range a.registry.All() {
		snap.Opponents[o.Name()] = o.State()
	}
	return snap
}
