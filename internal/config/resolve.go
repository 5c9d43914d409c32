package config

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/gesture"
	"github.com/verte-zerg/flicktype/internal/hand"
	"github.com/verte-zerg/flicktype/internal/layout"
)

// Recognizer modes.
const (
	ModeFlick  = "flick"
	ModePicker = "picker"
)

// RecognizerMode returns the configured recognizer, flick by default.
func (fc FileConfig) RecognizerMode() (string, error) {
	if fc.Gesture.Mode == nil {
		return ModeFlick, nil
	}
	switch mode := strings.ToLower(*fc.Gesture.Mode); mode {
	case ModeFlick, ModePicker:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown gesture mode %q (want %s or %s)", *fc.Gesture.Mode, ModeFlick, ModePicker)
	}
}

// GestureSettings overlays the file's [gesture], [wave] and [[aux]] tables
// on the decoder defaults and validates the result.
func (fc FileConfig) GestureSettings() (gesture.Config, error) {
	cfg := gesture.DefaultConfig()
	g := fc.Gesture
	var err error
	if g.Hand != nil {
		if cfg.Hand, err = hand.ParseHandedness(*g.Hand); err != nil {
			return cfg, err
		}
	}
	if g.Trigger != nil {
		if cfg.Trigger, err = gesture.ParseTrigger(*g.Trigger); err != nil {
			return cfg, err
		}
	}
	if g.CategoryFinger != nil {
		if cfg.CategoryFinger, err = hand.ParseFinger(*g.CategoryFinger); err != nil {
			return cfg, err
		}
	}
	if len(g.KeyFingers) > 0 {
		cfg.KeyFingers = nil
		for _, name := range g.KeyFingers {
			f, err := hand.ParseFinger(name)
			if err != nil {
				return cfg, err
			}
			cfg.KeyFingers = append(cfg.KeyFingers, f)
		}
	}
	if g.Anchor != nil {
		if cfg.Anchor, err = hand.ParseJoint(*g.Anchor); err != nil {
			return cfg, err
		}
	}
	if g.Classifier != nil || g.Epsilon != nil {
		name, eps := "", direction.DefaultEpsilon
		if g.Classifier != nil {
			name = *g.Classifier
		}
		if g.Epsilon != nil {
			eps = *g.Epsilon
		}
		if cfg.Classifier, err = direction.ParseClassifier(name, eps); err != nil {
			return cfg, err
		}
	}
	if g.MinDisplacement != nil {
		cfg.MinDisplacement = *g.MinDisplacement
	}
	if g.Stages != nil {
		cfg.Stages = *g.Stages
	}
	if g.CancelOnRelease != nil {
		cfg.CancelOnCategoryRelease = *g.CancelOnRelease
	}
	if g.Timeout != nil {
		cfg.Timeout = *g.Timeout
	}

	if err := fc.applyWave(&cfg.Wave); err != nil {
		return cfg, err
	}
	if len(fc.Aux) > 0 {
		cfg.Aux = nil
		for _, a := range fc.Aux {
			b, err := a.binding()
			if err != nil {
				return cfg, err
			}
			cfg.Aux = append(cfg.Aux, b)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid gesture config: %w", err)
	}
	return cfg, nil
}

func (fc FileConfig) applyWave(w *gesture.WaveConfig) error {
	c := fc.Wave
	var err error
	if c.Enabled != nil {
		w.Enabled = *c.Enabled
	}
	if c.Hand != nil {
		if w.Hand, err = hand.ParseHandedness(*c.Hand); err != nil {
			return err
		}
	}
	if c.Joint != nil {
		if w.Joint, err = hand.ParseJoint(*c.Joint); err != nil {
			return err
		}
	}
	if c.MinStep != nil {
		w.MinStep = *c.MinStep
	}
	if c.Changes != nil {
		w.RequiredChanges = *c.Changes
	}
	if c.Window != nil {
		w.Window = *c.Window
	}
	if c.Action != nil {
		if w.Action, err = gesture.ParseAction(*c.Action); err != nil {
			return err
		}
	}
	return nil
}

func (a AuxConfig) binding() (gesture.AuxBinding, error) {
	var b gesture.AuxBinding
	var err error
	if b.Hand, err = hand.ParseHandedness(a.Hand); err != nil {
		return b, err
	}
	if b.Finger, err = hand.ParseFinger(a.Finger); err != nil {
		return b, err
	}
	b.Trigger = gesture.TriggerPinch
	if a.Trigger != "" {
		if b.Trigger, err = gesture.ParseTrigger(a.Trigger); err != nil {
			return b, err
		}
	}
	if b.Action, err = gesture.ParseAction(a.Action); err != nil {
		return b, err
	}
	return b, nil
}

// LandmarkSettings overlays the [source] thresholds on the defaults.
func (fc FileConfig) LandmarkSettings() hand.LandmarkConfig {
	cfg := hand.DefaultLandmarkConfig()
	if v := fc.Source.PinchThreshold; v != nil {
		cfg.PinchThreshold = *v
	}
	if v := fc.Source.PinchRange; v != nil {
		cfg.PinchRange = *v
	}
	if v := fc.Source.MinScore; v != nil {
		cfg.MinScore = *v
	}
	return cfg
}

// Layout resolves name against the [layouts] table first, then the
// built-in layouts.
func (fc FileConfig) Layout(name string) (*layout.Layout, error) {
	if custom, ok := fc.Layouts[name]; ok {
		l, err := layout.FromRows(name, custom.Layers...)
		if err != nil {
			return nil, fmt.Errorf("layout %q: %w", name, err)
		}
		return l, nil
	}
	return layout.Builtin(name)
}

// LayoutNames lists custom and built-in layout names.
func (fc FileConfig) LayoutNames() []string {
	names := layout.BuiltinNames()
	for name := range fc.Layouts {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
