package physics

import (
	"math"

	"github.com/mark3labs/arena-duel/game"
)

// ColliderType represents the type of collider
type ColliderType string

const (
	// ColliderRobot is a robot body
	ColliderRobot ColliderType = "robot"
	// ColliderBullet is a bullet in flight
	ColliderBullet ColliderType = "bullet"
)

// Collider represents a collision circle
type Collider struct {
	Position game.Point
	Radius   float64
	Type     ColliderType
	ID       string
}

// CheckCollision checks if two colliders are intersecting
func CheckCollision(a, b *Collider) bool {
	sumRadii := a.Radius + b.Radius
	return a.Position.DistanceSq(b.Position) < sumRadii*sumRadii
}

// GetRobotCollider creates a collider for a robot body
func GetRobotCollider(b *Body) *Collider {
	return &Collider{
		Position: b.Position,
		Radius:   RobotRadius,
		Type:     ColliderRobot,
		ID:       b.Name,
	}
}

// SegmentHits reports whether the segment from..to passes within the collider.
// Bullets move further per tick than a robot is wide, so the whole path is tested.
func SegmentHits(from, to game.Point, c *Collider) bool {
	dx := to.X - from.X
	dy := to.Y - from.Y
	lengthSq := dx*dx + dy*dy

	closest := from
	if lengthSq > 0 {
		t := ((c.Position.X-from.X)*dx + (c.Position.Y-from.Y)*dy) / lengthSq
		t = math.Max(0, math.Min(1, t))
		closest = game.Point{X: from.X + t*dx, Y: from.Y + t*dy}
	}
	return closest.DistanceSq(c.Position) <= c.Radius*c.Radius
}

// separate pushes two overlapping robots apart along the line between them
func separate(a, b *Body) {
	distance := a.Position.Distance(b.Position)
	overlap := 2*RobotRadius - distance
	if overlap <= 0 {
		return
	}

	angle := game.AngleTo(a.Position, b.Position)
	if distance == 0 {
		angle = a.Heading
	}
	a.Position = game.Project(a.Position, overlap/2, angle+180)
	b.Position = game.Project(b.Position, overlap/2, angle)
}
