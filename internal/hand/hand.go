// Package hand defines the per-frame hand snapshot consumed by the decoder.
package hand

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/flicktype/internal/direction"
)

// ErrNoHand is returned when the requested hand is not tracked this frame.
var ErrNoHand = errors.New("hand not tracked")

// Finger identifies one of the five fingers.
type Finger int

// Fingers in anatomical order.
const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// FingerCount is the number of fingers per hand.
const FingerCount = 5

var fingerNames = [FingerCount]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || int(f) >= FingerCount {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// ParseFinger resolves a finger name.
func ParseFinger(s string) (Finger, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range fingerNames {
		if s == name {
			return Finger(i), nil
		}
	}
	return 0, fmt.Errorf("unknown finger %q", s)
}

// Joint names a tracked position on the hand.
type Joint int

// Tracked joints. Fingertips share the Finger ordering.
const (
	ThumbTip Joint = iota
	IndexTip
	MiddleTip
	RingTip
	PinkyTip
	Palm
	Wrist
)

// JointCount is the number of tracked joints.
const JointCount = 7

var jointNames = [JointCount]string{"thumb-tip", "index-tip", "middle-tip", "ring-tip", "pinky-tip", "palm", "wrist"}

func (j Joint) String() string {
	if j < 0 || int(j) >= JointCount {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// ParseJoint resolves a joint name.
func ParseJoint(s string) (Joint, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range jointNames {
		if s == name {
			return Joint(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint %q", s)
}

// Tip returns the fingertip joint of f.
func (f Finger) Tip() Joint {
	return Joint(f)
}

// Handedness selects the left or right hand.
type Handedness int

// Hands.
const (
	Left Handedness = iota
	Right
)

func (h Handedness) String() string {
	if h == Left {
		return "left"
	}
	return "right"
}

// ParseHandedness resolves "left" or "right".
func ParseHandedness(s string) (Handedness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r", "":
		return Right, nil
	default:
		return Right, fmt.Errorf("unknown hand %q", s)
	}
}

// Frame is one hand's state for a single tracker frame.
type Frame struct {
	Tracked  bool                       `json:"tracked"`
	Pinching [FingerCount]bool          `json:"pinching"`
	Strength [FingerCount]float64       `json:"strength"`
	Bent     [FingerCount]bool          `json:"bent"`
	Joints   [JointCount]direction.Vec3 `json:"joints"`
}

// Position returns the position of j.
func (f Frame) Position(j Joint) direction.Vec3 {
	if j < 0 || int(j) >= JointCount {
		return direction.Vec3{}
	}
	return f.Joints[j]
}

// IsPinching reports whether finger touches the thumb.
func (f Frame) IsPinching(finger Finger) bool {
	if finger < 0 || int(finger) >= FingerCount {
		return false
	}
	return f.Pinching[finger]
}

// IsBent reports whether finger is curled toward the palm.
func (f Frame) IsBent(finger Finger) bool {
	if finger < 0 || int(finger) >= FingerCount {
		return false
	}
	return f.Bent[finger]
}

// Snapshot carries both hands at one instant.
type Snapshot struct {
	At    time.Time `json:"at"`
	Left  Frame     `json:"left"`
	Right Frame     `json:"right"`
}

// Hand returns the frame for h, tracked or not.
func (s Snapshot) Hand(h Handedness) Frame {
	if h == Left {
		return s.Left
	}
	return s.Right
}

// Tracked returns the frame for h or ErrNoHand.
func (s Snapshot) Tracked(h Handedness) (Frame, error) {
	f := s.Hand(h)
	if !f.Tracked {
		return Frame{}, fmt.Errorf("%s: %w", h, ErrNoHand)
	}
	return f, nil
}

// Set replaces the frame for h.
func (s *Snapshot) Set(h Handedness, f Frame) {
	if h == Left {
		s.Left = f
		return
	}
	s.Right = f
}
