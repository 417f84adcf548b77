package physics

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/arena-duel/game"
)

// heatEpsilon absorbs float drift so a cold gun reports exactly zero heat
const heatEpsilon = 1e-9

// Body is one robot as the host sees it
type Body struct {
	Name         string
	Position     game.Point
	Heading      float64
	Velocity     float64
	GunHeading   float64
	RadarHeading float64
	Energy       float64
	GunHeat      float64
	Alive        bool

	// Steered bodies are driven by Steer instead of queued orders
	Steered        bool
	desiredHeading float64
	desiredSpeed   float64

	orders      []game.Command
	turnLeft    float64
	moveLeft    float64
	gunTurnLeft float64
	radarTurn   float64
	firePower   float64
	radarFrom   float64
	radarSwept  float64

	stats RobotStats
}

// busy reports whether the body still has movement left to execute
func (b *Body) busy() bool {
	return len(b.orders) > 0 || b.turnLeft != 0 || b.moveLeft != 0 || b.Velocity != 0
}

// World is the arena simulator: it owns every body and bullet and advances
// them one tick at a time
type World struct {
	arena        game.Arena
	tick         int64
	bodies       map[string]*Body
	names        []string
	shells       []Shell
	shellPhysics *ShellPhysics
	rng          *rand.Rand
	logger       *log.Logger
}

var _ Engine = (*World)(nil)

// NewWorld creates an empty arena
func NewWorld(arena game.Arena, rng *rand.Rand, logger *log.Logger) *World {
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("world")
	return &World{
		arena:        arena,
		bodies:       make(map[string]*Body),
		shellPhysics: NewShellPhysics(arena, logger),
		rng:          rng,
		logger:       logger,
	}
}

// Arena returns the battlefield dimensions
func (w *World) Arena() game.Arena { return w.arena }

// AddRobot places a new robot at pos facing heading
func (w *World) AddRobot(name string, pos game.Point, heading float64) (*Body, error) {
	if _, exists := w.bodies[name]; exists {
		return nil, fmt.Errorf("add %s: %w", name, ErrDuplicateRobot)
	}

	heading = game.NormalizeAbsolute(heading)
	body := &Body{
		Name:           name,
		Position:       pos,
		Heading:        heading,
		GunHeading:     heading,
		RadarHeading:   heading,
		Energy:         StartEnergy,
		GunHeat:        InitialGunHeat,
		Alive:          true,
		desiredHeading: heading,
	}
	w.bodies[name] = body
	w.names = append(w.names, name)
	w.clamp(body)

	w.logger.Debug("robot added", "name", name, "x", body.Position.X, "y", body.Position.Y)
	return body, nil
}

// RandomPosition picks a spawn point clear of the walls and every live robot
func (w *World) RandomPosition() game.Point {
	margin := 2 * RobotRadius
	var pos game.Point
	for attempt := 0; attempt < 100; attempt++ {
		pos = game.Point{
			X: margin + w.rng.Float64()*(w.arena.Width-2*margin),
			Y: margin + w.rng.Float64()*(w.arena.Height-2*margin),
		}
		free := true
		for _, body := range w.bodies {
			if body.Alive && body.Position.Distance(pos) < 4*RobotRadius {
				free = false
				break
			}
		}
		if free {
			break
		}
	}
	return pos
}

// Body returns the named robot
func (w *World) Body(name string) (*Body, bool) {
	body, ok := w.bodies[name]
	return body, ok
}

func (w *World) lookup(name string) (*Body, error) {
	body, ok := w.bodies[name]
	if !ok {
		return nil, fmt.Errorf("robot %s: %w", name, ErrUnknownRobot)
	}
	return body, nil
}

// Order hands a robot's commands to the host. Body turns and moves queue up
// and run in sequence; gun and radar turns replace whatever was pending.
func (w *World) Order(name string, cmds []game.Command) error {
	body, err := w.lookup(name)
	if err != nil {
		return err
	}
	if !body.Alive {
		return nil
	}

	for _, cmd := range cmds {
		switch cmd.Kind {
		case game.CommandRotateRadar:
			body.radarTurn = cmd.Value
		case game.CommandRotateBody, game.CommandMove:
			body.orders = append(body.orders, cmd)
		case game.CommandRotateGun:
			body.gunTurnLeft = cmd.Value
			body.firePower = 0
		case game.CommandFire:
			body.firePower = math.Max(MinPower, math.Min(MaxPower, cmd.Value))
		default:
			return fmt.Errorf("robot %s: unsupported command %q", name, cmd.Kind)
		}
	}
	return nil
}

// Steer sets the heading and speed a steered robot works toward. Turn and
// acceleration limits still apply.
func (w *World) Steer(name string, heading, speed float64) error {
	body, err := w.lookup(name)
	if err != nil {
		return err
	}
	body.Steered = true
	body.desiredHeading = game.NormalizeAbsolute(heading)
	body.desiredSpeed = math.Max(-MaxVelocity, math.Min(MaxVelocity, speed))
	return nil
}

// SelfState reports a robot's own view of itself
func (w *World) SelfState(name string) (game.SelfState, error) {
	body, err := w.lookup(name)
	if err != nil {
		return game.SelfState{}, err
	}
	return w.selfState(body), nil
}

func (w *World) selfState(body *Body) game.SelfState {
	return game.SelfState{
		Tick:       w.tick,
		Position:   body.Position,
		Heading:    body.Heading,
		GunHeading: body.GunHeading,
		Energy:     body.Energy,
		GunHeat:    body.GunHeat,
		Velocity:   body.Velocity,
		Moving:     body.busy(),
		Arena:      w.arena,
	}
}

// Alive reports whether the named robot is still in the match
func (w *World) Alive(name string) bool {
	body, ok := w.bodies[name]
	return ok && body.Alive
}

// AliveNames lists the live robots in name order
func (w *World) AliveNames() []string {
	names := make([]string, 0, len(w.bodies))
	for _, name := range w.names {
		if w.bodies[name].Alive {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Tick returns the number of completed steps
func (w *World) Tick() int64 { return w.tick }

// Stats returns the combat totals for a robot
func (w *World) Stats(name string) (RobotStats, error) {
	body, err := w.lookup(name)
	if err != nil {
		return RobotStats{}, err
	}
	return body.stats, nil
}

// Shells returns a copy of the bullets in flight
func (w *World) Shells() []Shell {
	shells := make([]Shell, len(w.shells))
	copy(shells, w.shells)
	return shells
}

// Step advances the arena one tick and returns the events each robot
// perceived, keyed by robot name
func (w *World) Step() map[string][]game.GameEvent {
	w.tick++
	events := make(map[string][]game.GameEvent)

	live := w.live()
	for _, body := range live {
		w.coolGun(body)
		w.turnGun(body)
		w.fire(body)
		w.turnRadar(body)
		if body.Steered {
			w.steer(body)
		} else {
			w.drive(body)
		}
		w.clamp(body)
	}

	w.resolveRams(live, events)
	w.advanceShells(events)
	w.resolveDeaths(events)
	w.sweepRadars(events)

	return events
}

func (w *World) live() []*Body {
	live := make([]*Body, 0, len(w.names))
	for _, name := range w.names {
		if body := w.bodies[name]; body.Alive {
			live = append(live, body)
		}
	}
	return live
}

func (w *World) coolGun(body *Body) {
	body.GunHeat -= GunCoolingRate
	if body.GunHeat < heatEpsilon {
		body.GunHeat = 0
	}
}

func (w *World) turnGun(body *Body) {
	step := clampMagnitude(body.gunTurnLeft, GunTurnRate)
	body.GunHeading = game.NormalizeAbsolute(body.GunHeading + step)
	body.gunTurnLeft -= step
}

// fire releases a pending shot once the gun has finished turning and cooled
func (w *World) fire(body *Body) {
	if body.firePower == 0 || body.gunTurnLeft != 0 || body.GunHeat > 0 {
		return
	}
	power := body.firePower
	body.firePower = 0
	if body.Energy <= power {
		return
	}

	shell := w.shellPhysics.NewShell(body, power, w.tick)
	w.shells = append(w.shells, shell)
	body.GunHeat = GunHeatFor(power)
	body.Energy -= power
	body.stats.ShotsFired++

	w.logger.Debug("fired", "robot", body.Name, "power", power, "heading", body.GunHeading)
}

func (w *World) turnRadar(body *Body) {
	step := clampMagnitude(body.radarTurn, RadarTurnRate)
	body.radarFrom = body.RadarHeading
	body.radarSwept = step
	body.RadarHeading = game.NormalizeAbsolute(body.RadarHeading + step)
	body.radarTurn -= step
}

// drive executes the head of the body's order queue
func (w *World) drive(body *Body) {
	for body.turnLeft == 0 && body.moveLeft == 0 && len(body.orders) > 0 {
		order := body.orders[0]
		body.orders = body.orders[1:]
		if order.Kind == game.CommandRotateBody {
			body.turnLeft = order.Value
		} else {
			body.moveLeft = order.Value
		}
	}

	if body.turnLeft != 0 {
		step := clampMagnitude(body.turnLeft, BodyTurnRate)
		body.Heading = game.NormalizeAbsolute(body.Heading + step)
		body.turnLeft -= step
		body.Velocity = 0
		return
	}

	if body.moveLeft == 0 {
		body.Velocity = 0
		return
	}

	remaining := math.Abs(body.moveLeft)
	speed := math.Min(math.Min(math.Abs(body.Velocity)+Acceleration, MaxVelocity), remaining)
	direction := math.Copysign(1, body.moveLeft)

	body.Position = game.Project(body.Position, direction*speed, body.Heading)
	body.moveLeft -= direction * speed
	body.Velocity = direction * speed
	if math.Abs(body.moveLeft) < heatEpsilon {
		body.moveLeft = 0
		body.Velocity = 0
	}
}

// steer turns and accelerates a steered body toward its desired course
func (w *World) steer(body *Body) {
	turn := clampMagnitude(game.NormalizeRelative(body.desiredHeading-body.Heading), BodyTurnRate)
	body.Heading = game.NormalizeAbsolute(body.Heading + turn)
	body.Velocity = approach(body.Velocity, body.desiredSpeed)
	body.Position = game.Project(body.Position, body.Velocity, body.Heading)
}

// clamp keeps the body inside the walls; touching a wall stops it
func (w *World) clamp(body *Body) {
	x := math.Max(RobotRadius, math.Min(w.arena.Width-RobotRadius, body.Position.X))
	y := math.Max(RobotRadius, math.Min(w.arena.Height-RobotRadius, body.Position.Y))
	if x != body.Position.X || y != body.Position.Y {
		body.Position = game.Point{X: x, Y: y}
		body.Velocity = 0
		body.moveLeft = 0
	}
}

func (w *World) resolveRams(live []*Body, events map[string][]game.GameEvent) {
	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			a, b := live[i], live[j]
			if !CheckCollision(GetRobotCollider(a), GetRobotCollider(b)) {
				continue
			}

			a.Energy -= RamDamage
			b.Energy -= RamDamage
			a.stats.Rams++
			b.stats.Rams++
			a.stats.DamageTaken += RamDamage
			b.stats.DamageTaken += RamDamage
			separate(a, b)
			w.clamp(a)
			w.clamp(b)
			for _, body := range []*Body{a, b} {
				body.Velocity = 0
				body.moveLeft = 0
			}

			w.logger.Debug("ram", "a", a.Name, "b", b.Name)
			events[a.Name] = append(events[a.Name], w.hitRobotEvent(a, b))
			events[b.Name] = append(events[b.Name], w.hitRobotEvent(b, a))
		}
	}
}

func (w *World) hitRobotEvent(self, other *Body) game.GameEvent {
	return game.GameEvent{
		Type: game.EventHitRobot,
		Tick: w.tick,
		Data: game.HitRobotEvent{
			Name:    other.Name,
			Bearing: game.NormalizeRelative(game.AngleTo(self.Position, other.Position) - self.Heading),
			Energy:  other.Energy,
			Self:    w.selfState(self),
		},
	}
}

func (w *World) advanceShells(events map[string][]game.GameEvent) {
	live := w.live()
	active := w.shells[:0]
	for _, shell := range w.shells {
		from, to, inside := w.shellPhysics.UpdateShellPosition(&shell)

		if victim, hit := w.shellPhysics.DetailedCollisionCheck(shell, from, to, live); hit {
			w.applyHit(shell, victim, events)
			continue
		}
		if inside {
			active = append(active, shell)
		}
	}
	w.shells = active
}

func (w *World) applyHit(shell Shell, victim *Body, events map[string][]game.GameEvent) {
	damage := BulletDamage(shell.Power)
	victim.Energy -= damage
	victim.stats.DamageTaken += damage

	if owner, ok := w.bodies[shell.Owner]; ok {
		owner.stats.ShotsHit++
		owner.stats.DamageDealt += damage
		if owner.Alive {
			owner.Energy += BulletEnergyGain(shell.Power)
		}
	}

	events[victim.Name] = append(events[victim.Name], game.GameEvent{
		Type: game.EventHitByBullet,
		Tick: w.tick,
		Data: game.HitByBulletEvent{
			Name:    shell.Owner,
			Heading: shell.Heading,
			Power:   shell.Power,
			Self:    w.selfState(victim),
		},
	})
}

func (w *World) resolveDeaths(events map[string][]game.GameEvent) {
	for _, body := range w.live() {
		if body.Energy > 0 {
			continue
		}
		body.Alive = false
		body.Energy = 0
		body.Velocity = 0
		body.orders = nil
		w.logger.Info("robot destroyed", "name", body.Name, "tick", w.tick)

		for _, other := range w.live() {
			events[other.Name] = append(events[other.Name], game.GameEvent{
				Type: game.EventRobotDeath,
				Tick: w.tick,
				Data: game.RobotDeathEvent{Name: body.Name},
			})
		}
	}
}

// sweepRadars reports every robot inside the arc each radar covered this tick
func (w *World) sweepRadars(events map[string][]game.GameEvent) {
	live := w.live()
	for _, scanner := range live {
		for _, target := range live {
			if target == scanner {
				continue
			}
			distance := scanner.Position.Distance(target.Position)
			if distance > RadarRange {
				continue
			}
			angle := game.AngleTo(scanner.Position, target.Position)
			if !inArc(scanner.radarFrom, scanner.radarSwept, angle) {
				continue
			}

			events[scanner.Name] = append(events[scanner.Name], game.GameEvent{
				Type: game.EventScannedRobot,
				Tick: w.tick,
				Data: game.ScanEvent{
					Name:     target.Name,
					Energy:   target.Energy,
					Bearing:  game.NormalizeRelative(angle - scanner.Heading),
					Distance: distance,
					Heading:  target.Heading,
					Velocity: target.Velocity,
					Self:     w.selfState(scanner),
				},
			})
		}
	}
}

// inArc reports whether angle lies on the arc swept from start by sweep degrees
func inArc(start, sweep, angle float64) bool {
	if sweep >= 0 {
		return game.NormalizeAbsolute(angle-start) <= sweep
	}
	return game.NormalizeAbsolute(start-angle) <= -sweep
}

func clampMagnitude(value, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, value))
}

// approach moves v toward target, braking faster than it accelerates
func approach(v, target float64) float64 {
	if target > v {
		rate := Acceleration
		if v < 0 {
			rate = Deceleration
		}
		return math.Min(v+rate, target)
	}
	rate := Acceleration
	if v > 0 {
		rate = Deceleration
	}
	return math.Max(v-rate, target)
}
