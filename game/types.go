package game

import "fmt"

// Mode is the agent's reaction state between movement cycles
type Mode uint8

const (
	ModeScanning Mode = iota
	ModeFired
	ModeHitByBullet
	ModeHitRobot
)

func (m Mode) String() string {
	switch m {
	case ModeScanning:
		return "scanning"
	case ModeFired:
		return "fired"
	case ModeHitByBullet:
		return "hitByBullet"
	case ModeHitRobot:
		return "hitRobot"
	}
	return "unknown"
}

// MarshalText lets snapshots carry the mode by name
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a mode name written by MarshalText
func (m *Mode) UnmarshalText(text []byte) error {
	for _, candidate := range []Mode{ModeScanning, ModeFired, ModeHitByBullet, ModeHitRobot} {
		if candidate.String() == string(text) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// SelfState is what the host reports about our own robot on every call
type SelfState struct {
	Tick       int64   `json:"tick"`
	Position   Point   `json:"position"`
	Heading    float64 `json:"heading"`
	GunHeading float64 `json:"gunHeading"`
	Energy     float64 `json:"energy"`
	GunHeat    float64 `json:"gunHeat"`
	Velocity   float64 `json:"velocity"`
	// Moving is true while the host still has body turn or travel left to execute
	Moving bool  `json:"moving"`
	Arena  Arena `json:"arena"`
}

// EventType represents the type of host event
type EventType string

// Event types
const (
	EventScannedRobot EventType = "SCANNED_ROBOT"
	EventHitByBullet  EventType = "HIT_BY_BULLET"
	EventHitRobot     EventType = "HIT_ROBOT"
	EventRobotDeath   EventType = "ROBOT_DEATH"
)

// GameEvent is a host notification delivered to the agent before its tick
type GameEvent struct {
	Type EventType   `json:"type"`
	Tick int64       `json:"tick"`
	Data interface{} `json:"data"`
}

// ScanEvent is a radar contact with another robot
type ScanEvent struct {
	Name     string    `json:"name"`
	Energy   float64   `json:"energy"`
	Bearing  float64   `json:"bearing"` // relative to our body heading
	Distance float64   `json:"distance"`
	Heading  float64   `json:"heading"`
	Velocity float64   `json:"velocity"`
	Self     SelfState `json:"self"`
}

// HitByBulletEvent reports a bullet striking us
type HitByBulletEvent struct {
	Name    string    `json:"name"`
	Heading float64   `json:"heading"` // absolute heading the bullet travelled on
	Power   float64   `json:"power"`
	Self    SelfState `json:"self"`
}

// HitRobotEvent reports a body collision with another robot
type HitRobotEvent struct {
	Name    string    `json:"name"`
	Bearing float64   `json:"bearing"` // relative to our body heading
	Energy  float64   `json:"energy"`
	Self    SelfState `json:"self"`
}

// RobotDeathEvent reports another robot leaving the match
type RobotDeathEvent struct {
	Name string `json:"name"`
}

// CommandKind names an order sent back to the host
type CommandKind string

// Command kinds
const (
	CommandRotateRadar CommandKind = "ROTATE_RADAR"
	CommandRotateBody  CommandKind = "ROTATE_BODY"
	CommandMove        CommandKind = "MOVE"
	CommandRotateGun   CommandKind = "ROTATE_GUN"
	CommandFire        CommandKind = "FIRE"
)

// Command is a single host order. Rotations are degrees clockwise, MOVE is
// signed distance (negative travels backward), FIRE carries the bullet power.
type Command struct {
	Kind  CommandKind `json:"kind"`
	Value float64     `json:"value"`
}
