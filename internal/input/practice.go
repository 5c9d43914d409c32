package input

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/flicktype/internal/layout"
	"github.com/verte-zerg/flicktype/internal/model"
)

// AdvancePolicy decides whether a mismatch moves the cursor.
type AdvancePolicy int

// Advance policies.
const (
	// AdvanceAlways moves on every input and counts mismatches as mistakes.
	AdvanceAlways AdvancePolicy = iota
	// AdvanceOnMatch holds the cursor until the expected rune arrives.
	AdvanceOnMatch
)

func (p AdvancePolicy) String() string {
	if p == AdvanceOnMatch {
		return "on-match"
	}
	return "always"
}

// ParseAdvancePolicy resolves "always" or "on-match".
func ParseAdvancePolicy(s string) (AdvancePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return AdvanceAlways, nil
	case "on-match", "match":
		return AdvanceOnMatch, nil
	default:
		return AdvanceAlways, fmt.Errorf("unknown advance policy %q (want always or on-match)", s)
	}
}

// BackspacePolicy decides what backspace does to practice progress.
type BackspacePolicy int

// Backspace policies.
const (
	BackspaceIgnore BackspacePolicy = iota
	BackspaceRewind
)

func (p BackspacePolicy) String() string {
	if p == BackspaceRewind {
		return "rewind"
	}
	return "ignore"
}

// ParseBackspacePolicy resolves "ignore" or "rewind".
func ParseBackspacePolicy(s string) (BackspacePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return BackspaceIgnore, nil
	case "rewind":
		return BackspaceRewind, nil
	default:
		return BackspaceIgnore, fmt.Errorf("unknown backspace policy %q (want ignore or rewind)", s)
	}
}

// Mark is the scoring state of one target position.
type Mark int

// Marks.
const (
	MarkPending Mark = iota
	MarkCorrect
	MarkWrong
	MarkSkipped
)

// PracticeConfig configures a practice run. Producible, when set, reports
// whether the active layout can produce a rune; others are skipped.
type PracticeConfig struct {
	Advance    AdvancePolicy
	Backspace  BackspacePolicy
	Producible func(rune) bool
	Now        func() time.Time
}

// Outcome describes the effect of one input on a practice run.
type Outcome struct {
	Expected rune
	Got      rune
	Correct  bool
	Advanced bool
	// Partial is set when the input is the base of a modified kana and the
	// modifier is still to come.
	Partial bool
}

type charStat struct {
	correct      int
	incorrect    int
	latencySumMs int64
	latencyCount int64
}

// Practice scores input against a fixed target.
type Practice struct {
	cfg     PracticeConfig
	target  []rune
	marks   []Mark
	cursor  int
	history []int
	pending rune

	correct  int
	mistakes int

	started       bool
	startedAt     time.Time
	endedAt       time.Time
	prevCorrectAt time.Time
	charStats     map[rune]*charStat
}

// NewPractice starts a run over target.
func NewPractice(target string, cfg PracticeConfig) *Practice {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	runes := []rune(target)
	p := &Practice{
		cfg:       cfg,
		target:    runes,
		marks:     make([]Mark, len(runes)),
		charStats: map[rune]*charStat{},
	}
	p.skip()
	return p
}

// Target returns the target text.
func (p *Practice) Target() string {
	return string(p.target)
}

// Cursor returns the index of the next expected rune.
func (p *Practice) Cursor() int {
	return p.cursor
}

// Marks returns a copy of the per-position marks.
func (p *Practice) Marks() []Mark {
	return append([]Mark(nil), p.marks...)
}

// Mistakes returns the number of mismatched inputs.
func (p *Practice) Mistakes() int {
	return p.mistakes
}

// Correct returns the number of matched inputs still standing.
func (p *Practice) Correct() int {
	return p.correct
}

// Done reports whether the cursor reached the end.
func (p *Practice) Done() bool {
	return p.cursor >= len(p.target)
}

// Progress returns the completed fraction in [0, 1].
func (p *Practice) Progress() float64 {
	if len(p.target) == 0 {
		return 1
	}
	return float64(p.cursor) / float64(len(p.target))
}

// Expected returns the next expected rune.
func (p *Practice) Expected() (rune, bool) {
	if p.Done() {
		return 0, false
	}
	return p.target[p.cursor], true
}

// Pending returns the kana base waiting for its modifier, or zero.
func (p *Practice) Pending() rune {
	return p.pending
}

// Feed scores r against the expected rune.
func (p *Practice) Feed(r rune) Outcome {
	if p.Done() {
		return Outcome{}
	}
	if p.pending != 0 {
		held := p.pending
		p.pending = 0
		p.settle(held)
		if p.Done() {
			return Outcome{}
		}
	}
	expected := p.target[p.cursor]
	if base, m := Decompose(expected); m != layout.ModNone && r == base {
		p.begin()
		p.pending = r
		return Outcome{Expected: expected, Got: r, Partial: true}
	}
	return p.settle(r)
}

// FeedModifier completes a held kana base. Without a held base it is a
// no-op.
func (p *Practice) FeedModifier(m layout.Modifier) Outcome {
	if p.pending == 0 || p.Done() {
		return Outcome{}
	}
	r, ok := Modify(p.pending, m)
	if !ok {
		r = p.pending
	}
	p.pending = 0
	return p.settle(r)
}

func (p *Practice) begin() {
	if !p.started {
		p.started = true
		p.startedAt = p.cfg.Now()
	}
}

func (p *Practice) settle(r rune) Outcome {
	p.begin()
	pos := p.cursor
	expected := p.target[pos]
	correct := r == expected
	p.updateStats(expected, correct)
	out := Outcome{Expected: expected, Got: r, Correct: correct}
	if correct {
		p.correct++
		p.marks[pos] = MarkCorrect
	} else {
		p.mistakes++
		p.marks[pos] = MarkWrong
	}
	if correct || p.cfg.Advance == AdvanceAlways {
		p.history = append(p.history, pos)
		p.cursor++
		p.skip()
		out.Advanced = true
		if p.Done() {
			p.endedAt = p.cfg.Now()
		}
	}
	return out
}

// skip moves the cursor past newlines and unproducible runes.
func (p *Practice) skip() {
	for p.cursor < len(p.target) {
		r := p.target[p.cursor]
		if r == '\n' || r == '\r' || (p.cfg.Producible != nil && r != ' ' && !p.cfg.Producible(r)) {
			p.marks[p.cursor] = MarkSkipped
			p.cursor++
			continue
		}
		return
	}
}

// Backspace applies the backspace policy. A held kana base is always
// dropped. It reports whether progress changed.
func (p *Practice) Backspace() bool {
	if p.pending != 0 {
		p.pending = 0
		return true
	}
	if p.cfg.Backspace != BackspaceRewind || len(p.history) == 0 {
		return false
	}
	last := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	if p.marks[last] == MarkCorrect {
		p.correct--
	}
	for i := last; i < len(p.marks) && i < p.cursor; i++ {
		p.marks[i] = MarkPending
	}
	p.cursor = last
	p.endedAt = time.Time{}
	return true
}

func (p *Practice) updateStats(expected rune, correct bool) {
	if expected == ' ' {
		return
	}
	entry, ok := p.charStats[expected]
	if !ok {
		entry = &charStat{}
		p.charStats[expected] = entry
	}
	if !correct {
		entry.incorrect++
		return
	}
	entry.correct++
	now := p.cfg.Now()
	if !p.prevCorrectAt.IsZero() {
		entry.latencySumMs += now.Sub(p.prevCorrectAt).Milliseconds()
		entry.latencyCount++
	}
	p.prevCorrectAt = now
}

// Summary is the stored result of a practice run.
type Summary struct {
	StartedAt time.Time
	EndedAt   time.Time
	Correct   int
	Mistakes  int
	Chars     []model.CharStats
}

// Started reports whether any input was scored.
func (p *Practice) Started() bool {
	return p.started
}

// Summary returns the run totals and per-character stats sorted by rune.
func (p *Practice) Summary() Summary {
	s := Summary{
		StartedAt: p.startedAt,
		EndedAt:   p.endedAt,
		Correct:   p.correct,
		Mistakes:  p.mistakes,
	}
	if s.EndedAt.IsZero() && p.started {
		s.EndedAt = p.cfg.Now()
	}
	keys := make([]rune, 0, len(p.charStats))
	for r := range p.charStats {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, r := range keys {
		e := p.charStats[r]
		s.Chars = append(s.Chars, model.CharStats{
			Char:         string(r),
			Correct:      e.correct,
			Incorrect:    e.incorrect,
			LatencySumMs: e.latencySumMs,
			LatencyCount: e.latencyCount,
		})
	}
	return s
}
