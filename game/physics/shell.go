package physics

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/arena-duel/game"
)

// Shell is a bullet in flight
type Shell struct {
	ID       string     `json:"id"`
	Owner    string     `json:"owner"`
	Position game.Point `json:"position"`
	Heading  float64    `json:"heading"`
	Power    float64    `json:"power"`
	Speed    float64    `json:"speed"`
	FiredAt  int64      `json:"firedAt"`
}

// ShellPhysics advances bullets and resolves their impacts
type ShellPhysics struct {
	arena   game.Arena
	counter int
	logger  *log.Logger
}

// NewShellPhysics creates a bullet calculator for the arena
func NewShellPhysics(arena game.Arena, logger *log.Logger) *ShellPhysics {
	return &ShellPhysics{arena: arena, logger: logger}
}

// NewShell launches a bullet from the muzzle of owner
func (sp *ShellPhysics) NewShell(owner *Body, power float64, tick int64) Shell {
	sp.counter++
	return Shell{
		ID:       fmt.Sprintf("shell_%d", sp.counter),
		Owner:    owner.Name,
		Position: owner.Position,
		Heading:  owner.GunHeading,
		Power:    power,
		Speed:    game.BulletSpeed(power),
		FiredAt:  tick,
	}
}

// UpdateShellPosition moves the shell one tick and returns the segment it
// swept. active is false once the shell has left the arena.
func (sp *ShellPhysics) UpdateShellPosition(shell *Shell) (from, to game.Point, active bool) {
	from = shell.Position
	shell.Position = game.Project(shell.Position, shell.Speed, shell.Heading)
	to = shell.Position
	return from, to, sp.arena.Contains(to, 0)
}

// DetailedCollisionCheck finds the first live robot other than the owner on
// the swept segment
func (sp *ShellPhysics) DetailedCollisionCheck(shell Shell, from, to game.Point, bodies []*Body) (*Body, bool) {
	for _, body := range bodies {
		if !body.Alive || body.Name == shell.Owner {
			continue
		}
		if SegmentHits(from, to, GetRobotCollider(body)) {
			sp.logger.Debug("shell hit",
				"shell", shell.ID,
				"owner", shell.Owner,
				"target", body.Name,
				"power", shell.Power)
			return body, true
		}
	}
	return nil, false
}
