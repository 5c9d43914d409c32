package hand

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/flicktype/internal/direction"
)

func openHand() Landmarks {
	var lm Landmarks
	lm.Handedness = "Right"
	lm.Score = 0.9
	lm.Points[LmWrist] = direction.Vec3{}
	lm.Points[LmMiddleMCP] = direction.Vec3{Y: -0.1}
	lm.Points[LmIndexMCP] = direction.Vec3{X: 0.03, Y: -0.1}
	lm.Points[LmPinkyMCP] = direction.Vec3{X: -0.03, Y: -0.09}
	lm.Points[LmThumbIP] = direction.Vec3{X: -0.06, Y: -0.03}
	lm.Points[LmThumbTip] = direction.Vec3{X: -0.08, Y: -0.05}
	for i, x := range []float64{0.02, 0, -0.02, -0.04} {
		f := Index + Finger(i)
		lm.Points[pipLandmark[f]] = direction.Vec3{X: x, Y: -0.15}
		lm.Points[tipLandmark[f]] = direction.Vec3{X: x, Y: -0.2}
	}
	return lm
}

func TestFromLandmarksOpenHand(t *testing.T) {
	f := FromLandmarks(openHand(), DefaultLandmarkConfig())
	if !f.Tracked {
		t.Fatalf("expected tracked frame")
	}
	for i := Thumb; i <= Pinky; i++ {
		if f.Pinching[i] || f.Bent[i] {
			t.Fatalf("%s: expected open finger, got pinch=%v bent=%v", i, f.Pinching[i], f.Bent[i])
		}
	}
	if got := f.Position(IndexTip).Y; math.Abs(got-0.2) > 1e-9 {
		t.Fatalf("expected y flipped to 0.2, got %v", got)
	}
}

func TestFromLandmarksPinchAndBend(t *testing.T) {
	lm := openHand()
	lm.Points[LmIndexTip] = lm.Points[LmThumbTip].Add(direction.Vec3{X: 0.01})
	lm.Points[LmMiddleTip] = direction.Vec3{Y: -0.05}
	f := FromLandmarks(lm, DefaultLandmarkConfig())
	if !f.IsPinching(Index) {
		t.Fatalf("expected index pinch, strength %v", f.Strength[Index])
	}
	if f.Strength[Index] < 0.85 || f.Strength[Index] > 0.95 {
		t.Fatalf("expected strength near 0.9, got %v", f.Strength[Index])
	}
	if !f.IsBent(Middle) {
		t.Fatalf("expected middle bent")
	}
	if f.IsBent(Ring) || f.IsPinching(Ring) {
		t.Fatalf("ring should stay open")
	}
}

func TestFromLandmarksDegenerate(t *testing.T) {
	if f := FromLandmarks(Landmarks{}, DefaultLandmarkConfig()); f.Tracked {
		t.Fatalf("expected untracked frame for zero palm size")
	}
}

func TestSnapshotFromLandmarks(t *testing.T) {
	at := time.Unix(100, 0)
	weak := openHand()
	weak.Score = 0.2
	left := openHand()
	left.Handedness = "Left"
	right := openHand()
	right.Score = 0.95
	dup := openHand()
	dup.Score = 0.6

	snap := SnapshotFromLandmarks(at, []Landmarks{weak, dup, left, right}, DefaultLandmarkConfig())
	if !snap.At.Equal(at) {
		t.Fatalf("expected timestamp kept")
	}
	if !snap.Left.Tracked || !snap.Right.Tracked {
		t.Fatalf("expected both hands tracked")
	}

	empty := SnapshotFromLandmarks(at, []Landmarks{weak}, DefaultLandmarkConfig())
	if _, err := empty.Tracked(Right); !errors.Is(err, ErrNoHand) {
		t.Fatalf("expected ErrNoHand, got %v", err)
	}
}

func TestParseNames(t *testing.T) {
	f, err := ParseFinger("Ring")
	if err != nil || f != Ring {
		t.Fatalf("parse finger: %v %v", f, err)
	}
	j, err := ParseJoint("palm")
	if err != nil || j != Palm {
		t.Fatalf("parse joint: %v %v", j, err)
	}
	h, err := ParseHandedness("left")
	if err != nil || h != Left {
		t.Fatalf("parse hand: %v %v", h, err)
	}
	if _, err := ParseFinger("toe"); err == nil {
		t.Fatalf("expected error for unknown finger")
	}
	if Middle.Tip() != MiddleTip {
		t.Fatalf("expected middle tip joint")
	}
}
