package game

import "math"

// RiskEvaluator scores candidate destinations. Lower is safer.
type RiskEvaluator struct {
	// MobilityWeight scales the penalty for staying near the current and last positions
	MobilityWeight float64
	// EnergyRatioCap bounds how much a stronger opponent can weigh
	EnergyRatioCap float64
}

// DefaultRiskEvaluator returns the canonical weights
func DefaultRiskEvaluator() RiskEvaluator {
	return RiskEvaluator{
		MobilityWeight: 0.05,
		EnergyRatioCap: 2,
	}
}

// Risk sums the mobility term and one threat term per live opponent. A
// candidate on top of an opponent scores math.MaxFloat64.
func (e RiskEvaluator) Risk(candidate, current, last Point, selfEnergy float64, registry *Registry) float64 {
	risk := e.mobility(candidate, current, last)
	if registry == nil {
		return risk
	}

	for _, o := range registry.Alive() {
		distSq := candidate.DistanceSq(o.Position())
		if distSq == 0 {
			return math.MaxFloat64
		}
		risk += e.energyRatio(o.Energy(), selfEnergy) * angularSafety(candidate, current, o.Position()) / distSq
	}
	return risk
}

func (e RiskEvaluator) mobility(candidate, current, last Point) float64 {
	return e.MobilityWeight / (1 + candidate.Distance(current) + candidate.Distance(last))
}

func (e RiskEvaluator) energyRatio(opponentEnergy, selfEnergy float64) float64 {
	if selfEnergy <= 0 {
		return e.EnergyRatioCap
	}
	return math.Min(opponentEnergy/selfEnergy, e.EnergyRatioCap)
}

// angularSafety is 1 when travel to candidate crosses the opponent's line of
// sight at a right angle and 2 when it runs along it
func angularSafety(candidate, current, opponent Point) float64 {
	delta := (AngleTo(current, candidate) - AngleTo(opponent, candidate)) * math.Pi / 180
	return 1 + math.Abs(math.Cos(delta))
}
