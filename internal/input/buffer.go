// Package input applies resolved keys to a text buffer and scores practice runs.
package input

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/verte-zerg/flicktype/internal/layout"
)

// ShiftMode controls when an active shift clears.
type ShiftMode int

// Shift modes.
const (
	// ShiftLock stays active until toggled again.
	ShiftLock ShiftMode = iota
	// ShiftOnce clears after the next letter.
	ShiftOnce
)

func (m ShiftMode) String() string {
	if m == ShiftOnce {
		return "once"
	}
	return "lock"
}

// ParseShiftMode resolves "lock" or "once".
func ParseShiftMode(s string) (ShiftMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lock":
		return ShiftLock, nil
	case "once":
		return ShiftOnce, nil
	default:
		return ShiftLock, fmt.Errorf("unknown shift mode %q (want lock or once)", s)
	}
}

// Buffer is the free-typing text sink.
type Buffer struct {
	runes []rune
	shift bool
	mode  ShiftMode
}

// NewBuffer creates an empty buffer.
func NewBuffer(mode ShiftMode) *Buffer {
	return &Buffer{mode: mode}
}

// Append adds s, upper-cased while shift is active and lower-cased otherwise.
func (b *Buffer) Append(s string) {
	for _, r := range s {
		b.runes = append(b.runes, b.caseOf(r))
		if b.shift && b.mode == ShiftOnce && unicode.IsLetter(r) && unicode.ToUpper(r) != unicode.ToLower(r) {
			b.shift = false
		}
	}
}

// caseOf applies the shift state to r.
func (b *Buffer) caseOf(r rune) rune {
	if b.shift {
		return unicode.ToUpper(r)
	}
	return unicode.ToLower(r)
}

// Space appends exactly one space.
func (b *Buffer) Space() {
	b.runes = append(b.runes, ' ')
}

// Backspace removes the last rune. It reports false on an empty buffer.
func (b *Buffer) Backspace() bool {
	if len(b.runes) == 0 {
		return false
	}
	b.runes = b.runes[:len(b.runes)-1]
	return true
}

// ToggleShift flips the shift state and returns the new value.
func (b *Buffer) ToggleShift() bool {
	b.shift = !b.shift
	return b.shift
}

// Shift reports whether shift is active.
func (b *Buffer) Shift() bool {
	return b.shift
}

// ApplyModifier rewrites the last rune with a kana modifier. It reports
// false when the last rune has no such form.
func (b *Buffer) ApplyModifier(m layout.Modifier) bool {
	if len(b.runes) == 0 {
		return false
	}
	last := b.runes[len(b.runes)-1]
	r, ok := Modify(last, m)
	if !ok {
		return false
	}
	b.runes[len(b.runes)-1] = r
	return true
}

// Last returns the last rune, if any.
func (b *Buffer) Last() (rune, bool) {
	if len(b.runes) == 0 {
		return 0, false
	}
	return b.runes[len(b.runes)-1], true
}

// Len returns the buffer length in runes.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// String returns the buffer contents.
func (b *Buffer) String() string {
	return string(b.runes)
}

// Clear empties the buffer. Shift is kept.
func (b *Buffer) Clear() {
	b.runes = nil
}
