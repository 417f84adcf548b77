package game

import "math"

// SolverTuning holds the firing solver constants
type SolverTuning struct {
	Iterations           int
	GunTurnRate          float64 // degrees per tick
	PowerScale           float64 // power = PowerScale / distance
	MaxPower             float64
	TurnThreshold        float64 // deg/tick below which motion is treated as straight
	ReliabilityThreshold float64 // turn ratio needed before trusting circular motion
}

// DefaultSolverTuning returns the canonical solver constants
func DefaultSolverTuning() SolverTuning {
	return SolverTuning{
		Iterations:           20,
		GunTurnRate:          20,
		PowerScale:           900,
		MaxPower:             3,
		TurnThreshold:        TurnThreshold,
		ReliabilityThreshold: 0.32,
	}
}

// BulletSpeed is the host's ballistic model: heavier shots fly slower
func BulletSpeed(power float64) float64 {
	return 20 - 3*power
}

// FiringSolution is an aim the host can execute
type FiringSolution struct {
	GunTurn    float64 `json:"gunTurn"`
	Power      float64 `json:"power"`
	Predicted  Point   `json:"predicted"`
	FlightTime float64 `json:"flightTime"`
	Circular   bool    `json:"circular"`
}

// Commands converts the solution into host orders
func (s FiringSolution) Commands() []Command {
	return []Command{
		{Kind: CommandRotateGun, Value: s.GunTurn},
		{Kind: CommandFire, Value: s.Power},
	}
}

// FiringSolver predicts where a target will be when a bullet arrives
type FiringSolver struct {
	Tuning SolverTuning
	// SpeedOf maps bullet power to speed, BulletSpeed when nil
	SpeedOf func(power float64) float64
}

// NewFiringSolver creates a solver using the host ballistic model
func NewFiringSolver(tuning SolverTuning) FiringSolver {
	return FiringSolver{Tuning: tuning, SpeedOf: BulletSpeed}
}

// Solve iterates travel time and predicted position toward a fixed point.
// ok is false when there is no target or the prediction leaves the arena.
func (s FiringSolver) Solve(self Point, gunHeading float64, target *Opponent, arena Arena) (FiringSolution, bool) {
	if target == nil {
		return FiringSolution{}, false
	}

	speedOf := s.SpeedOf
	if speedOf == nil {
		speedOf = BulletSpeed
	}

	power := math.Min(s.Tuning.PowerScale/self.Distance(target.Position()), s.Tuning.MaxPower)
	speed := speedOf(power)
	circular := s.circular(target)

	predicted := target.Position()
	var t float64
	for i := 0; i < s.Tuning.Iterations; i++ {
		// Turn time counts in either direction, so the allowance uses |turn|
		turn := math.Abs(NormalizeRelative(AngleTo(self, predicted) - gunHeading))
		t = predicted.Distance(self)/speed + turn/s.Tuning.GunTurnRate
		predicted = s.extrapolate(target, t, circular)
	}

	if !arena.Contains(predicted, 0) {
		return FiringSolution{}, false
	}

	return FiringSolution{
		GunTurn:    NormalizeRelative(AngleTo(self, predicted) - gunHeading),
		Power:      power,
		Predicted:  predicted,
		FlightTime: t,
		Circular:   circular,
	}, true
}

// Extrapolate predicts the target position t ticks ahead
func (s FiringSolver) Extrapolate(target *Opponent, t float64) Point {
	return s.extrapolate(target, t, s.circular(target))
}

// circular reports whether the target turns often enough to be modelled on an arc
func (s FiringSolver) circular(target *Opponent) bool {
	rate := target.HeadingChangeRate()
	if math.Abs(rate) <= s.Tuning.TurnThreshold {
		return false
	}
	reliability, ok := target.TurningReliability()
	return ok && reliability > s.Tuning.ReliabilityThreshold
}

func (s FiringSolver) extrapolate(target *Opponent, t float64, circular bool) Point {
	pos := target.Position()
	heading := target.Heading() * math.Pi / 180
	velocity := target.Velocity()

	if !circular {
		return Point{
			X: pos.X + math.Sin(heading)*velocity*t,
			Y: pos.Y + math.Cos(heading)*velocity*t,
		}
	}

	// The radius v/omega needs omega in radians per tick to match v in units per tick
	omega := target.HeadingChangeRate() * math.Pi / 180
	radius := velocity / omega
	final := heading + omega*t
	return Point{
		X: pos.X + radius*(math.Cos(heading)-math.Cos(final)),
		Y: pos.Y + radius*(math.Sin(final)-math.Sin(heading)),
	}
}
