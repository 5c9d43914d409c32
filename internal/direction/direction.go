// Package direction classifies hand displacements into six axis directions.
package direction

import (
	"fmt"
	"math"
	"strings"
)

// Vec3 is a point or displacement in the tracker's reference frame.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v * k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Distance returns the Euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Len()
}

// Normalize returns v scaled to unit length, or the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Direction is one of the six axis directions, or None.
type Direction int

// Index order matches the layout rows and columns.
const (
	None    Direction = -1
	Right   Direction = 0 // +X
	Left    Direction = 1 // -X
	Up      Direction = 2 // +Y
	Down    Direction = 3 // -Y
	Forward Direction = 4 // +Z
	Back    Direction = 5 // -Z
)

// Count is the number of valid directions.
const Count = 6

// All lists the valid directions in index order.
var All = [Count]Direction{Right, Left, Up, Down, Forward, Back}

var names = [Count]string{"right", "left", "up", "down", "forward", "back"}

var arrows = [Count]string{"→", "←", "↑", "↓", "⊙", "⊗"}

var basis = [Count]Vec3{
	{X: 1},
	{X: -1},
	{Y: 1},
	{Y: -1},
	{Z: 1},
	{Z: -1},
}

// Valid reports whether d is one of the six directions.
func (d Direction) Valid() bool {
	return d >= 0 && int(d) < Count
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	if !d.Valid() {
		return "none"
	}
	return names[d]
}

// Arrow returns a one-cell glyph for guide displays.
func (d Direction) Arrow() string {
	if !d.Valid() {
		return "·"
	}
	return arrows[d]
}

// Unit returns the basis vector for d.
func (d Direction) Unit() Vec3 {
	if !d.Valid() {
		return Vec3{}
	}
	return basis[d]
}

// Parse resolves a direction name or arrow.
func Parse(s string) (Direction, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for i := range names {
		if s == names[i] || s == arrows[i] {
			return Direction(i), nil
		}
	}
	return None, fmt.Errorf("unknown direction %q", s)
}
