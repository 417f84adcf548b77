package game

import (
	"math"
	"math/rand"
)

// AngleBand is an open interval of absolute angular distance, in degrees
type AngleBand struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Allows reports whether angle sits strictly inside the band around avoid
func (b AngleBand) Allows(angle, avoid float64) bool {
	d := math.Abs(NormalizeRelative(angle - avoid))
	return d > b.Min && d < b.Max
}

// PlannerTuning holds the candidate search constants
type PlannerTuning struct {
	Trials        int
	MinDistance   float64
	MaxDistance   float64
	WallMargin    float64
	BulletBand    AngleBand
	RobotBand     AngleBand
	MaxRejections int
}

// DefaultPlannerTuning returns the canonical search constants
func DefaultPlannerTuning() PlannerTuning {
	return PlannerTuning{
		Trials:        100,
		MinDistance:   75,
		MaxDistance:   210,
		WallMargin:    18,
		BulletBand:    AngleBand{Min: 30, Max: 150},
		RobotBand:     AngleBand{Min: 90, Max: 110},
		MaxRejections: 1000,
	}
}

// PlanRequest is the input to one candidate search
type PlanRequest struct {
	Mode         Mode
	AngleToAvoid float64
	Current      Point
	Last         Point
	// Previous is the destination left over from the last cycle. It seeds
	// the running best, so it wins unless a trial beats it.
	Previous   Point
	Arena      Arena
	SelfEnergy float64
	Registry   *Registry
}

// Planner picks the next destination by random search over a risk landscape
type Planner struct {
	tuning PlannerTuning
	risk   RiskEvaluator
	rng    *rand.Rand
}

// NewPlanner creates a planner drawing from rng
func NewPlanner(tuning PlannerTuning, risk RiskEvaluator, rng *rand.Rand) *Planner {
	return &Planner{
		tuning: tuning,
		risk:   risk,
		rng:    rng,
	}
}

// SampleAngle draws an absolute heading, rejection sampled into the escape
// band that belongs to mode
func (p *Planner) SampleAngle(mode Mode, angleToAvoid float64) float64 {
	var band AngleBand
	switch mode {
	case ModeHitByBullet:
		band = p.tuning.BulletBand
	case ModeHitRobot:
		band = p.tuning.RobotBand
	default:
		return 360 * p.rng.Float64()
	}

	for i := 0; i < p.tuning.MaxRejections; i++ {
		angle := 360 * p.rng.Float64()
		if band.Allows(angle, angleToAvoid) {
			return angle
		}
	}
	return NormalizeAbsolute(angleToAvoid + (band.Min+band.Max)/2)
}

// Next runs the trial budget and returns the lowest-risk destination inside
// the wall margin, falling back to req.Previous
func (p *Planner) Next(req PlanRequest) Point {
	best := req.Previous
	bestRisk := p.risk.Risk(best, req.Current, req.Last, req.SelfEnergy, req.Registry)

	span := p.tuning.MaxDistance - p.tuning.MinDistance
	for i := 0; i < p.tuning.Trials; i++ {
		angle := p.SampleAngle(req.Mode, req.AngleToAvoid)
		distance := p.tuning.MinDistance + span*p.rng.Float64()
		candidate := Project(req.Current, distance, angle)

		if !req.Arena.Contains(candidate, p.tuning.WallMargin) {
			continue
		}
		if risk := p.risk.Risk(candidate, req.Current, req.Last, req.SelfEnergy, req.Registry); risk < bestRisk {
			best = candidate
			bestRisk = risk
		}
	}
	return best
}

// Move is a body order pair: turn by Turn degrees, then travel Distance.
// Reverse means the leg is driven backward.
type Move struct {
	Turn     float64
	Distance float64
	Reverse  bool
}

// PlanMove computes the turn and travel to reach dest. Turns past 90° are
// folded by half a revolution and driven in reverse, so the body never
// turns more than 90°.
func PlanMove(current Point, heading float64, dest Point) Move {
	turn := NormalizeRelative(AngleTo(current, dest) - heading)
	distance := current.Distance(dest)

	if turn > 90 {
		return Move{Turn: turn - 180, Distance: distance, Reverse: true}
	}
	if turn <= -90 {
		return Move{Turn: turn + 180, Distance: distance, Reverse: true}
	}
	return Move{Turn: turn, Distance: distance}
}

// Commands converts the move into host orders
func (m Move) Commands() []Command {
	travel := m.Distance
	if m.Reverse {
		travel = -travel
	}
	return []Command{
		{Kind: CommandRotateBody, Value: m.Turn},
		{Kind: CommandMove, Value: travel},
	}
}
