package physics

import (
	"errors"

	"github.com/mark3labs/arena-duel/game"
)

// Arena rules, matching the ballistic model the agent is tuned for
const (
	MaxVelocity    = 8.0
	Acceleration   = 1.0
	Deceleration   = 2.0
	BodyTurnRate   = 10.0 // degrees per tick
	GunTurnRate    = 20.0
	RadarTurnRate  = 45.0
	RadarRange     = 1200.0
	RobotRadius    = 18.0
	GunCoolingRate = 0.1
	InitialGunHeat = 3.0
	RamDamage      = 0.6
	StartEnergy    = 100.0
	MinPower       = 0.1
	MaxPower       = 3.0
)

var (
	ErrUnknownRobot   = errors.New("unknown robot")
	ErrDuplicateRobot = errors.New("robot already registered")
)

// Engine is the host side of a match: it executes orders, advances time and
// reports what each robot perceived
type Engine interface {
	Order(name string, cmds []game.Command) error
	Step() map[string][]game.GameEvent
	SelfState(name string) (game.SelfState, error)
	Alive(name string) bool
	AliveNames() []string
	Tick() int64
	Stats(name string) (RobotStats, error)
}

// RobotStats accumulates combat totals for one robot
type RobotStats struct {
	ShotsFired  int     `json:"shotsFired"`
	ShotsHit    int     `json:"shotsHit"`
	DamageDealt float64 `json:"damageDealt"`
	DamageTaken float64 `json:"damageTaken"`
	Rams        int     `json:"rams"`
}

// BulletDamage is the energy a hit removes from its victim
func BulletDamage(power float64) float64 {
	damage := 4 * power
	if power > 1 {
		damage += 2 * (power - 1)
	}
	return damage
}

// BulletEnergyGain is the energy returned to the shooter on a hit
func BulletEnergyGain(power float64) float64 {
	return 3 * power
}

// GunHeatFor is the heat a shot of the given power adds
func GunHeatFor(power float64) float64 {
	return 1 + power/5
}
