// Package layout defines the 6x6 flick key layouts.
package layout

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/flicktype/internal/direction"
)

// Size is the number of rows and columns of a grid.
const Size = direction.Count

var (
	// ErrOutOfRange is returned for a layer or direction outside the grid.
	ErrOutOfRange = errors.New("layout index out of range")
	// ErrEmptySlot is returned when the addressed slot has no key.
	ErrEmptySlot = errors.New("layout slot is empty")
)

// Kind classifies a key token.
type Kind int

// Key kinds.
const (
	KindNone Kind = iota
	KindChar
	KindSpace
	KindBackspace
	KindShift
	KindModifier
)

// Modifier rewrites the previously entered kana.
type Modifier int

// Kana modifiers.
const (
	ModNone Modifier = iota
	ModDakuten
	ModHandakuten
	ModSmall
)

// Key is a decoded layout slot.
type Key struct {
	Kind     Kind
	Text     string
	Modifier Modifier
}

// Label returns a short display label.
func (k Key) Label() string {
	switch k.Kind {
	case KindChar:
		return k.Text
	case KindSpace:
		return "␣"
	case KindBackspace:
		return "⌫"
	case KindShift:
		return "⇧"
	case KindModifier:
		switch k.Modifier {
		case ModDakuten:
			return "゛"
		case ModHandakuten:
			return "゜"
		case ModSmall:
			return "小"
		}
	}
	return ""
}

// Grid holds the raw tokens of one layer, indexed [category][key].
type Grid [Size][Size]string

// Combo addresses a slot: the gesture pair that produces a character.
type Combo struct {
	Layer    int
	Category direction.Direction
	Key      direction.Direction
}

// Layout is an immutable set of grids. Layer 0 is reached with the first
// key finger, layer 1 with the second, and so on.
type Layout struct {
	name   string
	layers []Grid
	keys   [][Size][Size]Key
}

// New validates the grids and builds a layout.
func New(name string, layers ...Grid) (*Layout, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("layout %q has no layers", name)
	}
	l := &Layout{
		name:   name,
		layers: append([]Grid(nil), layers...),
		keys:   make([][Size][Size]Key, len(layers)),
	}
	for li, g := range layers {
		for c := 0; c < Size; c++ {
			for k := 0; k < Size; k++ {
				key, err := ParseToken(g[c][k])
				if err != nil {
					return nil, fmt.Errorf("layout %q layer %d [%s][%s]: %w", name, li, direction.Direction(c), direction.Direction(k), err)
				}
				l.keys[li][c][k] = key
			}
		}
	}
	return l, nil
}

// FromRows builds a layout from configuration rows.
func FromRows(name string, layers ...[][]string) (*Layout, error) {
	grids := make([]Grid, 0, len(layers))
	for li, rows := range layers {
		if len(rows) == 0 {
			continue
		}
		if len(rows) != Size {
			return nil, fmt.Errorf("layout %q layer %d: expected %d rows, got %d", name, li, Size, len(rows))
		}
		var g Grid
		for c, row := range rows {
			if len(row) != Size {
				return nil, fmt.Errorf("layout %q layer %d row %d: expected %d keys, got %d", name, li, c, Size, len(row))
			}
			copy(g[c][:], row)
		}
		grids = append(grids, g)
	}
	return New(name, grids...)
}

// ParseToken decodes a single grid token.
func ParseToken(tok string) (Key, error) {
	switch strings.ToUpper(tok) {
	case "":
		return Key{}, nil
	case " ", "SPACE":
		return Key{Kind: KindSpace, Text: " "}, nil
	case "BS", "BACKSPACE":
		return Key{Kind: KindBackspace}, nil
	case "SHIFT":
		return Key{Kind: KindShift}, nil
	case "[DAKUTEN]", "[濁]":
		return Key{Kind: KindModifier, Modifier: ModDakuten}, nil
	case "[HANDAKUTEN]", "[半]":
		return Key{Kind: KindModifier, Modifier: ModHandakuten}, nil
	case "[SMALL]", "[小]":
		return Key{Kind: KindModifier, Modifier: ModSmall}, nil
	}
	if utf8.RuneCountInString(tok) != 1 {
		return Key{}, fmt.Errorf("token %q must be one character or a control name", tok)
	}
	return Key{Kind: KindChar, Text: tok}, nil
}

// Name returns the layout name.
func (l *Layout) Name() string {
	return l.name
}

// Layers returns the number of layers.
func (l *Layout) Layers() int {
	return len(l.keys)
}

// Grid returns a copy of a layer's raw tokens.
func (l *Layout) Grid(layer int) (Grid, bool) {
	if layer < 0 || layer >= len(l.layers) {
		return Grid{}, false
	}
	return l.layers[layer], true
}

// Lookup resolves a (category, key) pair on a layer.
func (l *Layout) Lookup(layer int, category, key direction.Direction) (Key, error) {
	if layer < 0 || layer >= len(l.keys) || !category.Valid() || !key.Valid() {
		return Key{}, fmt.Errorf("layer %d [%s][%s]: %w", layer, category, key, ErrOutOfRange)
	}
	k := l.keys[layer][category][key]
	if k.Kind == KindNone {
		return Key{}, fmt.Errorf("layer %d [%s][%s]: %w", layer, category, key, ErrEmptySlot)
	}
	return k, nil
}

// Reverse maps each producible character to its gesture combo. Letters map
// in both cases; the first slot wins when a character appears twice.
func (l *Layout) Reverse() map[rune]Combo {
	out := map[rune]Combo{}
	add := func(r rune, c Combo) {
		if _, ok := out[r]; !ok {
			out[r] = c
		}
	}
	for li := range l.keys {
		for c := 0; c < Size; c++ {
			for k := 0; k < Size; k++ {
				key := l.keys[li][c][k]
				combo := Combo{Layer: li, Category: direction.Direction(c), Key: direction.Direction(k)}
				switch key.Kind {
				case KindChar:
					r, _ := utf8.DecodeRuneInString(key.Text)
					add(r, combo)
					add(unicode.ToLower(r), combo)
					add(unicode.ToUpper(r), combo)
				case KindSpace:
					add(' ', combo)
				}
			}
		}
	}
	return out
}

// FindModifier returns the first slot holding modifier m.
func (l *Layout) FindModifier(m Modifier) (Combo, bool) {
	for li := range l.keys {
		for c := 0; c < Size; c++ {
			for k := 0; k < Size; k++ {
				key := l.keys[li][c][k]
				if key.Kind == KindModifier && key.Modifier == m {
					return Combo{Layer: li, Category: direction.Direction(c), Key: direction.Direction(k)}, true
				}
			}
		}
	}
	return Combo{}, false
}
