package gesture

import (
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/hand"
)

// Default thresholds.
const (
	DefaultMinDisplacement = 0.04
	DefaultTimeout         = 5 * time.Second
	DefaultWaveStep        = 0.01
	DefaultWaveChanges     = 4
	DefaultWaveWindow      = 500 * time.Millisecond
)

// AuxBinding maps a finger edge to a one-shot action.
type AuxBinding struct {
	Hand    hand.Handedness
	Finger  hand.Finger
	Trigger Trigger
	Action  Action
}

// WaveConfig configures the side-to-side wave detector.
type WaveConfig struct {
	Enabled         bool
	Hand            hand.Handedness
	Joint           hand.Joint
	MinStep         float64
	RequiredChanges int
	Window          time.Duration
	Action          Action
}

// Config parameterises the decoder. KeyFingers selects the layout layer: the
// n-th key finger reaches layer n. A zero Timeout never expires a gesture.
type Config struct {
	Hand                    hand.Handedness
	Trigger                 Trigger
	CategoryFinger          hand.Finger
	KeyFingers              []hand.Finger
	Anchor                  hand.Joint
	Classifier              direction.Classifier
	MinDisplacement         float64
	Stages                  int
	CancelOnCategoryRelease bool
	Timeout                 time.Duration
	Wave                    WaveConfig
	Aux                     []AuxBinding
}

// DefaultConfig returns the right-hand pinch layout: middle pinch arms the
// category, index pinch resolves it and its release resolves the key. The
// left hand carries space, shift and backspace.
func DefaultConfig() Config {
	return Config{
		Hand:                    hand.Right,
		Trigger:                 TriggerPinch,
		CategoryFinger:          hand.Middle,
		KeyFingers:              []hand.Finger{hand.Index},
		Anchor:                  hand.Palm,
		Classifier:              direction.AxisMax{Epsilon: direction.DefaultEpsilon},
		MinDisplacement:         DefaultMinDisplacement,
		Stages:                  2,
		CancelOnCategoryRelease: true,
		Timeout:                 DefaultTimeout,
		Wave: WaveConfig{
			Enabled:         true,
			Hand:            hand.Right,
			Joint:           hand.ThumbTip,
			MinStep:         DefaultWaveStep,
			RequiredChanges: DefaultWaveChanges,
			Window:          DefaultWaveWindow,
			Action:          ActionBackspace,
		},
		Aux: []AuxBinding{
			{Hand: hand.Left, Finger: hand.Index, Trigger: TriggerPinch, Action: ActionSpace},
			{Hand: hand.Left, Finger: hand.Middle, Trigger: TriggerPinch, Action: ActionShift},
			{Hand: hand.Left, Finger: hand.Ring, Trigger: TriggerPinch, Action: ActionBackspace},
		},
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if !validHand(c.Hand) || !validTrigger(c.Trigger) {
		return fmt.Errorf("invalid hand %d or trigger %d", c.Hand, c.Trigger)
	}
	if c.Stages != 2 && c.Stages != 3 {
		return fmt.Errorf("stages must be 2 or 3, got %d", c.Stages)
	}
	if c.Classifier == nil {
		return errors.New("classifier is required")
	}
	if c.MinDisplacement < 0 {
		return errors.New("min displacement must be >= 0")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be >= 0")
	}
	if !validFinger(c.CategoryFinger) {
		return fmt.Errorf("invalid category finger %d", c.CategoryFinger)
	}
	if c.Anchor < 0 || int(c.Anchor) >= hand.JointCount {
		return fmt.Errorf("invalid anchor joint %d", c.Anchor)
	}
	if len(c.KeyFingers) == 0 {
		return errors.New("at least one key finger is required")
	}
	seen := map[hand.Finger]bool{c.CategoryFinger: true}
	for _, f := range c.KeyFingers {
		if !validFinger(f) {
			return fmt.Errorf("invalid key finger %d", f)
		}
		if seen[f] {
			return fmt.Errorf("finger %s is used twice", f)
		}
		seen[f] = true
	}
	if c.Wave.Enabled {
		if c.Wave.RequiredChanges < 1 {
			return errors.New("wave needs at least one direction change")
		}
		if c.Wave.Window <= 0 {
			return errors.New("wave window must be positive")
		}
		if !validHand(c.Wave.Hand) {
			return fmt.Errorf("invalid wave hand %d", c.Wave.Hand)
		}
		if c.Wave.Joint < 0 || int(c.Wave.Joint) >= hand.JointCount {
			return fmt.Errorf("invalid wave joint %d", c.Wave.Joint)
		}
	}
	for _, b := range c.Aux {
		if !validFinger(b.Finger) || !validHand(b.Hand) || !validTrigger(b.Trigger) {
			return fmt.Errorf("invalid aux binding %+v", b)
		}
		if b.Action == ActionNone {
			return fmt.Errorf("aux binding for %s %s has no action", b.Hand, b.Finger)
		}
		if b.Hand == c.Hand && b.Trigger == c.Trigger && seen[b.Finger] {
			return fmt.Errorf("aux binding %s %s %s collides with a gesture finger", b.Hand, b.Finger, b.Trigger)
		}
	}
	return nil
}

func validFinger(f hand.Finger) bool {
	return f >= 0 && int(f) < hand.FingerCount
}

func validHand(h hand.Handedness) bool {
	return h == hand.Left || h == hand.Right
}

func validTrigger(t Trigger) bool {
	return t == TriggerPinch || t == TriggerBend
}
