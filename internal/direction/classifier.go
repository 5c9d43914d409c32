package direction

import (
	"fmt"
	"math"
	"strings"
)

// DefaultEpsilon is the displacement below which no direction is reported.
const DefaultEpsilon = 0.01

// Cos45 is the default dot-product acceptance threshold.
var Cos45 = math.Cos(math.Pi / 4)

// Dot products this close to the threshold count as ties.
const tieTolerance = 1e-9

// Classifier maps a start/end pair to a direction.
type Classifier interface {
	Classify(start, end Vec3) Direction
}

// AxisMax picks the axis with the largest absolute displacement component.
// Exact ties resolve X before Y before Z.
type AxisMax struct {
	Epsilon float64
}

// Classify implements Classifier.
func (c AxisMax) Classify(start, end Vec3) Direction {
	d := end.Sub(start)
	if d.Len() < c.Epsilon {
		return None
	}
	ax, ay, az := math.Abs(d.X), math.Abs(d.Y), math.Abs(d.Z)
	if ax == 0 && ay == 0 && az == 0 {
		return None
	}
	switch {
	case ax >= ay && ax >= az:
		if d.X > 0 {
			return Right
		}
		return Left
	case ay >= az:
		if d.Y > 0 {
			return Up
		}
		return Down
	default:
		if d.Z > 0 {
			return Forward
		}
		return Back
	}
}

// DotProduct compares the normalized displacement with the six basis
// vectors. The best match must strictly exceed MinCos, so exact diagonals
// between two axes yield None.
type DotProduct struct {
	Epsilon float64
	MinCos  float64
}

// Classify implements Classifier.
func (c DotProduct) Classify(start, end Vec3) Direction {
	d := end.Sub(start)
	if d.Len() < c.Epsilon || d.Len() == 0 {
		return None
	}
	n := d.Normalize()
	best := None
	bestDot := math.Inf(-1)
	for i, b := range basis {
		if dot := n.Dot(b); dot > bestDot {
			bestDot = dot
			best = Direction(i)
		}
	}
	if bestDot <= c.MinCos+tieTolerance {
		return None
	}
	return best
}

// Classifier names accepted by ParseClassifier.
const (
	NameAxisMax    = "axis-max"
	NameDotProduct = "dot"
)

// ParseClassifier builds a classifier by name.
func ParseClassifier(name string, epsilon float64) (Classifier, error) {
	if epsilon < 0 {
		return nil, fmt.Errorf("classifier epsilon must be >= 0")
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameAxisMax:
		return AxisMax{Epsilon: epsilon}, nil
	case NameDotProduct, "dot-product":
		return DotProduct{Epsilon: epsilon, MinCos: Cos45}, nil
	default:
		return nil, fmt.Errorf("unknown classifier %q (want %s or %s)", name, NameAxisMax, NameDotProduct)
	}
}
