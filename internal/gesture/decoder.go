package gesture

import (
	"fmt"
	"time"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/hand"
)

type fingerSet [hand.FingerCount]bool

// edges holds the finger transitions of one tick, indexed [hand][trigger].
type edges struct {
	down [2][2]fingerSet
	up   [2][2]fingerSet
}

// Decoder is the phase state machine. It is not safe for concurrent use;
// call Step from a single goroutine.
type Decoder struct {
	cfg       Config
	observers []Observer
	wave      *Wave

	prev [2][2]fingerSet

	phase     Phase
	start     direction.Vec3
	category  direction.Direction
	layer     int
	keyFinger hand.Finger
	deadline  time.Time
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithObserver registers fn to receive every event.
func WithObserver(fn Observer) Option {
	return func(d *Decoder) {
		if fn != nil {
			d.observers = append(d.observers, fn)
		}
	}
}

// New validates cfg and creates a decoder in the Idle phase.
func New(cfg Config, opts ...Option) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gesture config: %w", err)
	}
	cfg.KeyFingers = append([]hand.Finger(nil), cfg.KeyFingers...)
	cfg.Aux = append([]AuxBinding(nil), cfg.Aux...)
	d := &Decoder{
		cfg:      cfg,
		wave:     NewWave(cfg.Wave),
		category: direction.None,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the decoder configuration.
func (d *Decoder) Config() Config {
	return d.cfg
}

// Phase returns the current phase.
func (d *Decoder) Phase() Phase {
	return d.phase
}

// Category returns the resolved category while a key is pending.
func (d *Decoder) Category() direction.Direction {
	return d.category
}

// Layer returns the layout layer chosen by the key finger.
func (d *Decoder) Layer() int {
	return d.layer
}

// Start returns the anchor position recorded when the current phase began.
func (d *Decoder) Start() direction.Vec3 {
	return d.start
}

// Deadline returns when the current gesture times out, or zero when Idle.
func (d *Decoder) Deadline() time.Time {
	return d.deadline
}

// Reset returns to Idle without emitting. Finger history is kept so a held
// finger does not produce a fresh edge.
func (d *Decoder) Reset() {
	d.toIdle()
	d.wave.Reset()
}

// Step advances the decoder by one frame. Within a tick, finger edges are
// sampled first, then the timeout and phase transitions run, and auxiliary
// one-shots are evaluated last.
func (d *Decoder) Step(s hand.Snapshot) []Event {
	var events []Event
	emit := func(e Event) {
		e.At = s.At
		e.Phase = d.phase
		events = append(events, e)
	}

	wasIdle := d.phase == Idle
	ed := d.sample(s)

	if d.phase != Idle && d.cfg.Timeout > 0 && !s.At.Before(d.deadline) {
		d.cancel(emit, ReasonTimeout)
	}

	frame := s.Hand(d.cfg.Hand)
	if frame.Tracked {
		d.transition(s.At, frame, ed, emit)
	} else if d.phase != Idle {
		d.cancel(emit, ReasonHandLost)
	}

	// Motion made during a gesture never counts toward a wave.
	if wasIdle && d.phase == Idle {
		aux := d.auxiliary(s, ed)
		if len(events) == 0 {
			for _, e := range aux {
				emit(e)
			}
		}
	} else {
		d.wave.Reset()
	}

	for _, e := range events {
		for _, fn := range d.observers {
			fn(e)
		}
	}
	return events
}

func active(f hand.Frame, t Trigger) fingerSet {
	var out fingerSet
	if !f.Tracked {
		return out
	}
	for i := 0; i < hand.FingerCount; i++ {
		if t == TriggerBend {
			out[i] = f.Bent[i]
		} else {
			out[i] = f.Pinching[i]
		}
	}
	return out
}

func (d *Decoder) sample(s hand.Snapshot) edges {
	var ed edges
	for _, h := range []hand.Handedness{hand.Left, hand.Right} {
		frame := s.Hand(h)
		for _, t := range []Trigger{TriggerPinch, TriggerBend} {
			cur := active(frame, t)
			for i := 0; i < hand.FingerCount; i++ {
				prev := d.prev[h][t][i]
				ed.down[h][t][i] = cur[i] && !prev
				ed.up[h][t][i] = !cur[i] && prev
			}
			d.prev[h][t] = cur
		}
	}
	return ed
}

func (d *Decoder) setPhase(p Phase, at time.Time) {
	d.phase = p
	if p == Idle {
		d.deadline = time.Time{}
		return
	}
	d.deadline = at.Add(d.cfg.Timeout)
}

func (d *Decoder) toIdle() {
	d.setPhase(Idle, time.Time{})
	d.category = direction.None
	d.layer = 0
}

func (d *Decoder) cancel(emit func(Event), reason string) {
	cat := d.category
	d.toIdle()
	emit(Event{Kind: EventCancelled, Category: cat, Key: direction.None, Reason: reason})
}

func (d *Decoder) keyIndex(set fingerSet) int {
	for i, f := range d.cfg.KeyFingers {
		if set[f] {
			return i
		}
	}
	return -1
}

// classify resolves the displacement from the recorded start to end.
func (d *Decoder) classify(end direction.Vec3) (direction.Direction, float64, string) {
	disp := end.Distance(d.start)
	if disp < d.cfg.MinDisplacement {
		return direction.None, disp, ReasonBelowThreshold
	}
	dir := d.cfg.Classifier.Classify(d.start, end)
	if !dir.Valid() {
		return direction.None, disp, ReasonNoDirection
	}
	return dir, disp, ""
}

func (d *Decoder) transition(at time.Time, frame hand.Frame, ed edges, emit func(Event)) {
	pos := frame.Position(d.cfg.Anchor)
	down := ed.down[d.cfg.Hand][d.cfg.Trigger]
	up := ed.up[d.cfg.Hand][d.cfg.Trigger]
	cat := d.cfg.CategoryFinger

	switch d.phase {
	case Idle:
		if down[cat] {
			d.start = pos
			d.setPhase(CategoryReady, at)
			emit(Event{Kind: EventStarted, Category: direction.None, Key: direction.None, Finger: cat})
		}

	case CategoryReady:
		if d.cfg.Stages == 3 {
			if up[cat] {
				d.resolveCategory(at, pos, emit, CategorySelected, 0)
			}
			return
		}
		if i := d.keyIndex(down); i >= 0 {
			d.resolveCategory(at, pos, emit, KeySelecting, i)
			return
		}
		if up[cat] && d.cfg.CancelOnCategoryRelease {
			d.cancel(emit, ReasonCategoryRelease)
		}

	case CategorySelected:
		if down[cat] {
			d.cancel(emit, ReasonCategoryRepeat)
			return
		}
		if i := d.keyIndex(down); i >= 0 {
			d.start = pos
			d.layer = i
			d.keyFinger = d.cfg.KeyFingers[i]
			d.setPhase(KeySelecting, at)
			emit(Event{Kind: EventKeyStarted, Category: d.category, Key: direction.None, Layer: i, Finger: d.keyFinger})
		}

	case KeySelecting:
		if down[cat] {
			d.cancel(emit, ReasonCategoryRepeat)
			return
		}
		if !up[d.keyFinger] {
			return
		}
		category, layer, finger := d.category, d.layer, d.keyFinger
		key, disp, reason := d.classify(pos)
		d.toIdle()
		if reason != "" {
			emit(Event{Kind: EventAborted, Category: category, Key: direction.None, Layer: layer, Finger: finger, Displacement: disp, Reason: reason})
			return
		}
		emit(Event{Kind: EventKeyResolved, Category: category, Key: key, Layer: layer, Finger: finger, Displacement: disp})
	}
}

// resolveCategory classifies the category stroke and moves to next, or
// aborts back to Idle.
func (d *Decoder) resolveCategory(at time.Time, pos direction.Vec3, emit func(Event), next Phase, layer int) {
	dir, disp, reason := d.classify(pos)
	if reason != "" {
		d.toIdle()
		emit(Event{Kind: EventAborted, Category: direction.None, Key: direction.None, Displacement: disp, Reason: reason})
		return
	}
	d.category = dir
	d.start = pos
	d.layer = layer
	d.keyFinger = d.cfg.KeyFingers[layer]
	d.setPhase(next, at)
	ev := Event{Kind: EventCategoryResolved, Category: dir, Key: direction.None, Displacement: disp}
	if next == KeySelecting {
		ev.Layer = layer
		ev.Finger = d.keyFinger
	}
	emit(ev)
}

// auxiliary runs the wave detector and finger bindings. Step only calls it
// on ticks that start and end Idle.
func (d *Decoder) auxiliary(s hand.Snapshot, ed edges) []Event {
	var out []Event
	if d.cfg.Wave.Enabled {
		frame := s.Hand(d.cfg.Wave.Hand)
		if !frame.Tracked {
			d.wave.Reset()
		} else if d.wave.Observe(s.At, frame.Position(d.cfg.Wave.Joint).X) {
			out = append(out, Event{Kind: EventAux, Category: direction.None, Key: direction.None, Action: d.cfg.Wave.Action, Reason: "wave"})
		}
	}
	for _, b := range d.cfg.Aux {
		if ed.down[b.Hand][b.Trigger][b.Finger] {
			out = append(out, Event{Kind: EventAux, Category: direction.None, Key: direction.None, Action: b.Action, Finger: b.Finger})
		}
	}
	return out
}
