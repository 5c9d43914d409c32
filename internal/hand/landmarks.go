package hand

import (
	"time"

	"github.com/verte-zerg/flicktype/internal/direction"
)

// MediaPipe hand landmark indices.
const (
	LmWrist     = 0
	LmThumbIP   = 3
	LmThumbTip  = 4
	LmIndexMCP  = 5
	LmIndexPIP  = 6
	LmIndexTip  = 8
	LmMiddleMCP = 9
	LmMiddlePIP = 10
	LmMiddleTip = 12
	LmRingPIP   = 14
	LmRingTip   = 16
	LmPinkyMCP  = 17
	LmPinkyPIP  = 18
	LmPinkyTip  = 20

	NumLandmarks = 21
)

var tipLandmark = [FingerCount]int{LmThumbTip, LmIndexTip, LmMiddleTip, LmRingTip, LmPinkyTip}

var pipLandmark = [FingerCount]int{LmThumbIP, LmIndexPIP, LmMiddlePIP, LmRingPIP, LmPinkyPIP}

// Landmarks is one detected hand as reported by a MediaPipe tracker.
// Points use image coordinates: x right, y down, z toward the camera negative.
type Landmarks struct {
	Points     [NumLandmarks]direction.Vec3 `json:"points"`
	Handedness string                       `json:"handedness"`
	Score      float64                      `json:"score"`
}

// LandmarkConfig tunes the landmark to frame conversion.
type LandmarkConfig struct {
	// PinchRange is the thumb distance, in palm sizes, at which strength drops to zero.
	PinchRange float64
	// PinchThreshold is the strength at or above which a finger counts as pinching.
	PinchThreshold float64
	// MinScore drops hands detected with lower confidence.
	MinScore float64
}

// DefaultLandmarkConfig returns the conversion defaults.
func DefaultLandmarkConfig() LandmarkConfig {
	return LandmarkConfig{
		PinchRange:     1.0,
		PinchThreshold: 0.7,
		MinScore:       0.5,
	}
}

// palmSize is the wrist to middle MCP distance.
func (lm Landmarks) palmSize() float64 {
	return lm.Points[LmWrist].Distance(lm.Points[LmMiddleMCP])
}

// FromLandmarks derives a Frame from 21 landmarks. Positions are flipped into
// the decoder frame: +X right, +Y up, +Z away from the user.
func FromLandmarks(lm Landmarks, cfg LandmarkConfig) Frame {
	f := Frame{Tracked: true}
	palm := lm.palmSize()
	if palm < 1e-9 {
		return Frame{}
	}
	thumb := lm.Points[LmThumbTip]
	wrist := lm.Points[LmWrist]
	for i := Index; i <= Pinky; i++ {
		tip := lm.Points[tipLandmark[i]]
		d := tip.Distance(thumb) / palm
		s := 1 - d/cfg.PinchRange
		if s < 0 {
			s = 0
		}
		if s > 1 {
			s = 1
		}
		f.Strength[i] = s
		f.Pinching[i] = s >= cfg.PinchThreshold
	}
	for i := Thumb; i <= Pinky; i++ {
		tip := lm.Points[tipLandmark[i]]
		pip := lm.Points[pipLandmark[i]]
		f.Bent[i] = tip.Distance(wrist) < pip.Distance(wrist)
	}
	for i := Thumb; i <= Pinky; i++ {
		f.Joints[i.Tip()] = toFrame(lm.Points[tipLandmark[i]])
	}
	centre := lm.Points[LmWrist].Add(lm.Points[LmIndexMCP]).Add(lm.Points[LmPinkyMCP]).Scale(1.0 / 3)
	f.Joints[Palm] = toFrame(centre)
	f.Joints[Wrist] = toFrame(wrist)
	return f
}

func toFrame(p direction.Vec3) direction.Vec3 {
	return direction.Vec3{X: p.X, Y: -p.Y, Z: -p.Z}
}

// SnapshotFromLandmarks places every confident hand into a snapshot. When two
// hands claim the same side, the higher score wins.
func SnapshotFromLandmarks(at time.Time, hands []Landmarks, cfg LandmarkConfig) Snapshot {
	snap := Snapshot{At: at}
	var best [2]float64
	for _, lm := range hands {
		if lm.Score < cfg.MinScore {
			continue
		}
		side, err := ParseHandedness(lm.Handedness)
		if err != nil {
			continue
		}
		if snap.Hand(side).Tracked && lm.Score <= best[side] {
			continue
		}
		frame := FromLandmarks(lm, cfg)
		if !frame.Tracked {
			continue
		}
		best[side] = lm.Score
		snap.Set(side, frame)
	}
	return snap
}
