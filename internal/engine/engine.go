// Package engine wires a recognizer, a layout and the text sinks together.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/gesture"
	"github.com/verte-zerg/flicktype/internal/hand"
	"github.com/verte-zerg/flicktype/internal/input"
	"github.com/verte-zerg/flicktype/internal/layout"
)

// Recognizer turns snapshots into gesture events. gesture.Decoder and
// picker.Picker implement it.
type Recognizer interface {
	Step(s hand.Snapshot) []gesture.Event
	Phase() gesture.Phase
	Category() direction.Direction
	Reset()
}

// Counters accumulate over the engine lifetime.
type Counters struct {
	Resolved  int
	Aborted   int
	Cancelled int
	Invalid   int
	Aux       int
}

// Applied is one change made to the sinks.
type Applied struct {
	Key     layout.Key
	Action  gesture.Action
	Outcome input.Outcome
}

// Update reports the effect of one Step.
type Update struct {
	At      time.Time
	Phase   gesture.Phase
	Events  []gesture.Event
	Applied []Applied
}

// Engine owns the per-session state. It is driven from one goroutine.
type Engine struct {
	rec      Recognizer
	layout   *layout.Layout
	buffer   *input.Buffer
	practice *input.Practice
	logger   *zap.Logger

	observers []func(Update)
	counters  Counters
}

// Option configures an Engine.
type Option func(*Engine)

// WithPractice scores applied keys against p.
func WithPractice(p *input.Practice) Option {
	return func(e *Engine) {
		e.practice = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers fn to receive every non-empty update.
func WithObserver(fn func(Update)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

// New creates an engine.
func New(rec Recognizer, l *layout.Layout, buf *input.Buffer, opts ...Option) (*Engine, error) {
	if rec == nil {
		return nil, errors.New("engine needs a recognizer")
	}
	if l == nil {
		return nil, errors.New("engine needs a layout")
	}
	if buf == nil {
		return nil, errors.New("engine needs a buffer")
	}
	e := &Engine{rec: rec, layout: l, buffer: buf, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Recognizer returns the active recognizer.
func (e *Engine) Recognizer() Recognizer {
	return e.rec
}

// Layout returns the active layout.
func (e *Engine) Layout() *layout.Layout {
	return e.layout
}

// Buffer returns the text buffer.
func (e *Engine) Buffer() *input.Buffer {
	return e.buffer
}

// Practice returns the practice run, or nil in free mode.
func (e *Engine) Practice() *input.Practice {
	return e.practice
}

// SetPractice replaces the practice run, clearing the buffer.
func (e *Engine) SetPractice(p *input.Practice) {
	e.practice = p
	e.buffer.Clear()
	e.rec.Reset()
}

// Counters returns the gesture counters.
func (e *Engine) Counters() Counters {
	return e.counters
}

// Step feeds one snapshot through the recognizer and applies the result.
func (e *Engine) Step(s hand.Snapshot) Update {
	events := e.rec.Step(s)
	u := Update{At: s.At, Events: events}
	for _, ev := range events {
		e.logger.Debug("gesture event",
			zap.Stringer("kind", ev.Kind),
			zap.Stringer("phase", ev.Phase),
			zap.Stringer("category", ev.Category),
			zap.Stringer("key", ev.Key),
			zap.Int("layer", ev.Layer),
			zap.String("reason", ev.Reason),
		)
		switch ev.Kind {
		case gesture.EventKeyResolved:
			key, err := e.layout.Lookup(ev.Layer, ev.Category, ev.Key)
			if err != nil {
				e.counters.Invalid++
				e.logger.Warn("gesture resolved to no key", zap.Error(err))
				continue
			}
			e.counters.Resolved++
			u.Applied = append(u.Applied, e.applyKey(key))
		case gesture.EventAborted:
			e.counters.Aborted++
		case gesture.EventCancelled:
			e.counters.Cancelled++
		case gesture.EventAux:
			e.counters.Aux++
			u.Applied = append(u.Applied, e.applyAction(ev.Action))
		}
	}
	u.Phase = e.rec.Phase()
	if len(u.Events) > 0 {
		for _, fn := range e.observers {
			fn(u)
		}
	}
	return u
}

func (e *Engine) applyKey(key layout.Key) Applied {
	a := Applied{Key: key}
	switch key.Kind {
	case layout.KindChar:
		e.buffer.Append(key.Text)
		if e.practice != nil {
			if r, ok := e.buffer.Last(); ok {
				a.Outcome = e.practice.Feed(r)
			}
		}
	case layout.KindSpace:
		a.Action = gesture.ActionSpace
		a.Outcome = e.space()
	case layout.KindBackspace:
		a.Action = gesture.ActionBackspace
		e.backspace()
	case layout.KindShift:
		a.Action = gesture.ActionShift
		e.buffer.ToggleShift()
	case layout.KindModifier:
		if !e.buffer.ApplyModifier(key.Modifier) {
			e.logger.Debug("modifier has no target", zap.String("label", key.Label()))
		}
		if e.practice != nil {
			a.Outcome = e.practice.FeedModifier(key.Modifier)
		}
	}
	return a
}

func (e *Engine) applyAction(action gesture.Action) Applied {
	a := Applied{Action: action}
	switch action {
	case gesture.ActionSpace:
		a.Key = layout.Key{Kind: layout.KindSpace, Text: " "}
		a.Outcome = e.space()
	case gesture.ActionBackspace:
		a.Key = layout.Key{Kind: layout.KindBackspace}
		e.backspace()
	case gesture.ActionShift:
		a.Key = layout.Key{Kind: layout.KindShift}
		e.buffer.ToggleShift()
	}
	return a
}

func (e *Engine) space() input.Outcome {
	e.buffer.Space()
	if e.practice == nil {
		return input.Outcome{}
	}
	return e.practice.Feed(' ')
}

func (e *Engine) backspace() {
	e.buffer.Backspace()
	if e.practice != nil {
		e.practice.Backspace()
	}
}

// Run steps every snapshot from src and hands the update to fn until the
// source ends or ctx is done. A finite source ending with io.EOF is not an
// error.
func (e *Engine) Run(ctx context.Context, src hand.Source, fn func(Update)) error {
	return Pump(ctx, src, func(s hand.Snapshot) error {
		u := e.Step(s)
		if fn != nil {
			fn(u)
		}
		return nil
	})
}

// Pump reads src one frame at a time on the calling goroutine and passes
// each snapshot to fn.
func Pump(ctx context.Context, src hand.Source, fn func(hand.Snapshot) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s, err := src.Sample(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to sample hand source: %w", err)
		}
		if err := fn(s); err != nil {
			return err
		}
	}
}
