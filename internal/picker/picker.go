// Package picker implements the spatial block picker: six category blocks
// around an origin, each expanding into six key blocks on pinch.
package picker

import (
	"errors"
	"fmt"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/engage"
	"github.com/verte-zerg/flicktype/internal/gesture"
	"github.com/verte-zerg/flicktype/internal/hand"
	"github.com/verte-zerg/flicktype/internal/layout"
)

// Markers shows and hides visual block markers.
type Markers interface {
	Show(id string, pos direction.Vec3, label string)
	Hide(id string)
}

// Block identifies a category block (Key == None) or a key block.
type Block struct {
	Category direction.Direction
	Key      direction.Direction
}

// ID returns the marker id for b.
func (b Block) ID() string {
	if !b.Key.Valid() {
		return "cat-" + b.Category.String()
	}
	return "key-" + b.Category.String() + "-" + b.Key.String()
}

// Config places the blocks. Distance is measured from the origin to each
// category block centre and ChildDistance from a category block to its key
// blocks. A pointer within Radius of a centre is inside that block.
type Config struct {
	Hand          hand.Handedness
	Pointer       hand.Joint
	Finger        hand.Finger
	Distance      float64
	ChildDistance float64
	Radius        float64
}

// DefaultConfig returns the right index finger picker.
func DefaultConfig() Config {
	return Config{
		Hand:          hand.Right,
		Pointer:       hand.IndexTip,
		Finger:        hand.Index,
		Distance:      0.12,
		ChildDistance: 0.06,
		Radius:        0.025,
	}
}

// Picker is driven one snapshot at a time, like gesture.Decoder.
type Picker struct {
	cfg      Config
	layout   *layout.Layout
	markers  Markers
	registry *engage.Registry[Block]

	origin    direction.Vec3
	hasOrigin bool
	pinched   bool
	expanded  direction.Direction
}

// New creates a picker. markers may be nil.
func New(cfg Config, l *layout.Layout, markers Markers) (*Picker, error) {
	if l == nil {
		return nil, errors.New("picker needs a layout")
	}
	if cfg.Radius <= 0 || cfg.Distance <= 2*cfg.Radius || cfg.ChildDistance <= 2*cfg.Radius {
		return nil, fmt.Errorf("picker blocks overlap: radius %.3f, distance %.3f, child %.3f", cfg.Radius, cfg.Distance, cfg.ChildDistance)
	}
	p := &Picker{
		cfg:      cfg,
		layout:   l,
		markers:  markers,
		expanded: direction.None,
	}
	p.registry = engage.New(p.onEngage)
	return p, nil
}

// Registry exposes the engaged-block registry.
func (p *Picker) Registry() *engage.Registry[Block] {
	return p.registry
}

// Origin returns the centre of the category ring.
func (p *Picker) Origin() (direction.Vec3, bool) {
	return p.origin, p.hasOrigin
}

// Recenter moves the category ring to origin.
func (p *Picker) Recenter(origin direction.Vec3) {
	p.Reset()
	p.hideCategories()
	p.origin = origin
	p.hasOrigin = true
	p.showCategories()
}

// Phase maps the picker state onto decoder phases.
func (p *Picker) Phase() gesture.Phase {
	if p.expanded.Valid() {
		return gesture.KeySelecting
	}
	if _, ok := p.registry.Current(); ok {
		return gesture.CategoryReady
	}
	return gesture.Idle
}

// Category returns the expanded category.
func (p *Picker) Category() direction.Direction {
	return p.expanded
}

// Reset hides key blocks and clears the registry.
func (p *Picker) Reset() {
	p.registry.Reset()
	if p.expanded.Valid() {
		for _, k := range direction.All {
			p.hide(Block{Category: p.expanded, Key: k})
		}
	}
	p.expanded = direction.None
}

func (p *Picker) centre(b Block) direction.Vec3 {
	c := p.origin.Add(b.Category.Unit().Scale(p.cfg.Distance))
	if b.Key.Valid() {
		c = c.Add(b.Key.Unit().Scale(p.cfg.ChildDistance))
	}
	return c
}

func (p *Picker) label(b Block) string {
	if !b.Key.Valid() {
		return b.Category.Arrow()
	}
	k, err := p.layout.Lookup(0, b.Category, b.Key)
	if err != nil {
		return ""
	}
	return k.Label()
}

func (p *Picker) show(b Block) {
	if p.markers != nil {
		p.markers.Show(b.ID(), p.centre(b), p.label(b))
	}
}

func (p *Picker) hide(b Block) {
	if p.markers != nil {
		p.markers.Hide(b.ID())
	}
}

func (p *Picker) showCategories() {
	for _, c := range direction.All {
		p.show(Block{Category: c, Key: direction.None})
	}
}

func (p *Picker) hideCategories() {
	if !p.hasOrigin {
		return
	}
	for _, c := range direction.All {
		p.hide(Block{Category: c, Key: direction.None})
	}
}

func (p *Picker) onEngage(b Block, on bool) {
	if p.markers == nil || (b.Key.Valid() && b.Category != p.expanded) {
		return
	}
	label := p.label(b)
	if on {
		label = "[" + label + "]"
	}
	p.markers.Show(b.ID(), p.centre(b), label)
}

// hit returns the block containing pos, preferring key blocks.
func (p *Picker) hit(pos direction.Vec3) (Block, bool) {
	if p.expanded.Valid() {
		for _, k := range direction.All {
			b := Block{Category: p.expanded, Key: k}
			if pos.Distance(p.centre(b)) <= p.cfg.Radius {
				return b, true
			}
		}
	}
	for _, c := range direction.All {
		b := Block{Category: c, Key: direction.None}
		if pos.Distance(p.centre(b)) <= p.cfg.Radius {
			return b, true
		}
	}
	return Block{}, false
}

// Step advances the picker. The first tracked frame centres the ring on
// the pointer. A pinch inside an engaged category expands it; releasing
// inside one of its key blocks resolves the key and resets everything.
func (p *Picker) Step(s hand.Snapshot) []gesture.Event {
	frame := s.Hand(p.cfg.Hand)
	if !frame.Tracked {
		expanded := p.expanded
		p.Reset()
		p.pinched = false
		if expanded.Valid() {
			return []gesture.Event{{Kind: gesture.EventCancelled, At: s.At, Phase: gesture.Idle, Category: expanded, Key: direction.None, Reason: gesture.ReasonHandLost}}
		}
		return nil
	}
	pos := frame.Position(p.cfg.Pointer)
	if !p.hasOrigin {
		p.Recenter(pos)
	}

	pinch := frame.IsPinching(p.cfg.Finger)
	down := pinch && !p.pinched
	up := !pinch && p.pinched
	p.pinched = pinch

	block, inside := p.hit(pos)
	if inside {
		p.registry.Engage(block)
	} else if cur, ok := p.registry.Current(); ok {
		p.registry.Release(cur)
	}

	var events []gesture.Event
	switch {
	case down && !p.expanded.Valid():
		cur, ok := p.registry.Current()
		if !ok || cur.Key.Valid() {
			return nil
		}
		p.expanded = cur.Category
		for _, k := range direction.All {
			p.show(Block{Category: cur.Category, Key: k})
		}
		events = append(events, gesture.Event{Kind: gesture.EventCategoryResolved, At: s.At, Phase: gesture.KeySelecting, Category: cur.Category, Key: direction.None})

	case up && p.expanded.Valid():
		cat := p.expanded
		cur, ok := p.registry.Current()
		p.Reset()
		if ok && cur.Key.Valid() && cur.Category == cat {
			events = append(events, gesture.Event{Kind: gesture.EventKeyResolved, At: s.At, Phase: gesture.Idle, Category: cat, Key: cur.Key})
		} else {
			events = append(events, gesture.Event{Kind: gesture.EventCancelled, At: s.At, Phase: gesture.Idle, Category: cat, Key: direction.None, Reason: "released outside"})
		}
	}
	return events
}
