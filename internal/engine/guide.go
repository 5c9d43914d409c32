package engine

import (
	"unicode"

	"github.com/verte-zerg/flicktype/internal/gesture"
	"github.com/verte-zerg/flicktype/internal/input"
	"github.com/verte-zerg/flicktype/internal/layout"
)

// Hint describes how to produce one rune. Action is set when the rune comes
// from an auxiliary gesture. Shift asks for a shift toggle first. A modified
// kana needs Combo followed by ModCombo.
type Hint struct {
	Combo    layout.Combo
	HasCombo bool
	Action   gesture.Action
	Shift    bool
	Modifier layout.Modifier
	ModCombo layout.Combo
}

// Guide maps runes to the gestures that produce them.
type Guide struct {
	layout  *layout.Layout
	reverse map[rune]layout.Combo
}

// NewGuide indexes l.
func NewGuide(l *layout.Layout) *Guide {
	return &Guide{layout: l, reverse: l.Reverse()}
}

// Hint returns how to produce r given the current shift state.
func (g *Guide) Hint(r rune, shift bool) (Hint, bool) {
	if r == ' ' {
		if c, ok := g.reverse[' ']; ok {
			return Hint{Combo: c, HasCombo: true}, true
		}
		return Hint{Action: gesture.ActionSpace}, true
	}
	if c, ok := g.reverse[r]; ok {
		h := Hint{Combo: c, HasCombo: true}
		if unicode.ToUpper(r) != unicode.ToLower(r) {
			h.Shift = unicode.IsUpper(r) != shift
		}
		return h, true
	}
	base, m := input.Decompose(r)
	if m == layout.ModNone {
		return Hint{}, false
	}
	c, ok := g.reverse[base]
	if !ok {
		return Hint{}, false
	}
	mc, ok := g.layout.FindModifier(m)
	if !ok {
		return Hint{}, false
	}
	return Hint{Combo: c, HasCombo: true, Modifier: m, ModCombo: mc}, true
}

// Producible reports whether r can be entered with the layout and the
// auxiliary gestures.
func (g *Guide) Producible(r rune) bool {
	_, ok := g.Hint(r, false)
	return ok
}
