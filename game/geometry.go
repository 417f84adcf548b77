package game

import "math"

// Point is a 2D arena coordinate
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the euclidean distance between two points
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// DistanceSq returns the squared distance between two points
func (p Point) DistanceSq(q Point) float64 {
	dx := q.X - p.X
	dy := q.Y - p.Y
	return dx*dx + dy*dy
}

// AngleTo returns the absolute angle in degrees of the vector from p1 to p2.
// 0 points north (+Y) and angles grow clockwise.
func AngleTo(p1, p2 Point) float64 {
	return math.Atan2(p2.X-p1.X, p2.Y-p1.Y) * 180 / math.Pi
}

// Project returns the point at the given distance and absolute angle from origin
func Project(origin Point, distance, angle float64) Point {
	rad := angle * math.Pi / 180
	return Point{
		X: origin.X + distance*math.Sin(rad),
		Y: origin.Y + distance*math.Cos(rad),
	}
}

// NormalizeRelative folds an angle in degrees into (-180, 180]
func NormalizeRelative(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle > 180 {
		angle -= 360
	} else if angle <= -180 {
		angle += 360
	}
	return angle
}

// NormalizeAbsolute folds an angle in degrees into [0, 360)
func NormalizeAbsolute(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle >= 360 {
		angle -= 360
	}
	return angle
}

// Arena is the battlefield rectangle [0,Width] x [0,Height]
type Arena struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies strictly inside the arena shrunk by margin on every side
func (a Arena) Contains(p Point, margin float64) bool {
	return p.X > margin && p.X < a.Width-margin &&
		p.Y > margin && p.Y < a.Height-margin
}

// Center returns the middle of the arena
func (a Arena) Center() Point {
	return Point{X: a.Width / 2, Y: a.Height / 2}
}
