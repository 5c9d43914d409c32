package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/engine"
	"github.com/verte-zerg/flicktype/internal/gesture"
	"github.com/verte-zerg/flicktype/internal/hand"
	"github.com/verte-zerg/flicktype/internal/handsource"
	"github.com/verte-zerg/flicktype/internal/input"
	"github.com/verte-zerg/flicktype/internal/layout"
	"github.com/verte-zerg/flicktype/internal/model"
	"github.com/verte-zerg/flicktype/internal/store"
)

// scripted replays one event batch per Step.
type scripted struct {
	batches [][]gesture.Event
}

func (s *scripted) Step(hand.Snapshot) []gesture.Event {
	if len(s.batches) == 0 {
		return nil
	}
	b := s.batches[0]
	s.batches = s.batches[1:]
	return b
}

func (s *scripted) Phase() gesture.Phase          { return gesture.Idle }
func (s *scripted) Category() direction.Direction { return direction.None }
func (s *scripted) Reset()                        {}

func resolved(cat, k direction.Direction) []gesture.Event {
	return []gesture.Event{{Kind: gesture.EventKeyResolved, Category: cat, Key: k}}
}

func newTestModel(t *testing.T, rec engine.Recognizer, cfg model.Config, st *store.Store, sim *handsource.Sim) *Model {
	t.Helper()
	l, err := layout.Builtin(layout.NameAlpha)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	eng, err := engine.New(rec, l, input.NewBuffer(input.ShiftOnce))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	m, err := NewModel(Options{
		Config:  cfg,
		Engine:  eng,
		Store:   st,
		Phrases: []string{"hi"},
		Sim:     sim,
		Source:  "test",
	})
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

func practiceConfig() model.Config {
	return model.Config{Layout: layout.NameAlpha, Mode: model.ModePractice, Phrases: 1}
}

func TestRenderFooterFormats(t *testing.T) {
	m := newTestModel(t, &scripted{}, practiceConfig(), nil, nil)
	m.eng.SetPractice(input.NewPractice("abcd", input.PracticeConfig{}))
	m.eng.Practice().Feed('a')
	m.eng.Practice().Feed('b')
	m.hasLast = true
	m.lastWPM = 72.4
	m.lastAcc = 0.978
	m.allWPM = 68.1
	m.allAcc = 0.969

	out := m.renderFooter()
	if !containsAll(out, []string{"Progress 50%", "Mistakes 0", "Last 72.4 WPM", "97.8%", "All-time 68.1 WPM", "96.9%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestFramesCompleteAndStoreSession(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "flicktype.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	rec := &scripted{batches: [][]gesture.Event{
		resolved(direction.Left, direction.Down),
		{{Kind: gesture.EventAborted, Reason: gesture.ReasonBelowThreshold}},
		resolved(direction.Left, direction.Forward),
	}}
	m := newTestModel(t, rec, practiceConfig(), st, nil)
	if got := m.eng.Practice().Target(); got != "hi" {
		t.Fatalf("expected target %q, got %q", "hi", got)
	}
	for i := 0; i < 3; i++ {
		m.Update(FrameMsg{})
	}

	sessions, err := st.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.Correct != 2 || s.Incorrect != 0 || s.Resolved != 2 || s.Aborted != 1 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.Layout != layout.NameAlpha || s.Mode != model.ModePractice {
		t.Fatalf("unexpected session labels: %+v", s)
	}
	if m.eng.Practice().Cursor() != 0 || m.eng.Buffer().Len() != 0 {
		t.Fatalf("expected a fresh run after completion")
	}
	if !m.hasLast {
		t.Fatalf("expected last session footer stats")
	}
}

func TestFreeModeHasNoPractice(t *testing.T) {
	cfg := practiceConfig()
	cfg.Mode = model.ModeFree
	m := newTestModel(t, &scripted{batches: [][]gesture.Event{resolved(direction.Left, direction.Down)}}, cfg, nil, nil)
	if m.eng.Practice() != nil {
		t.Fatalf("free mode must not score")
	}
	m.Update(FrameMsg{})
	if got := m.eng.Buffer().String(); got != "h" {
		t.Fatalf("expected buffer %q, got %q", "h", got)
	}
	if strings.Contains(m.View(), "Progress") {
		t.Fatalf("free mode footer must not show progress")
	}
}

func TestSimKeysReachSource(t *testing.T) {
	sim := handsource.NewSim(handsource.SimOptions{})
	defer sim.Close()
	m := newTestModel(t, &scripted{}, practiceConfig(), nil, sim)
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	if sim.Tracked() {
		t.Fatalf("expected tracking toggled off")
	}
}

func TestNextKeyStartsNewText(t *testing.T) {
	m := newTestModel(t, &scripted{}, practiceConfig(), nil, nil)
	first := m.eng.Practice()
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.eng.Practice() == first {
		t.Fatalf("expected a new practice run")
	}
}

func TestHintText(t *testing.T) {
	h := engine.Hint{
		Combo:    layout.Combo{Layer: 0, Category: direction.Left, Key: direction.Down},
		HasCombo: true,
		Shift:    true,
	}
	if got, want := hintText(h), "shift then L1 ← ↓"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got, want := hintText(engine.Hint{Action: gesture.ActionSpace}), "aux space"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDescribeEvent(t *testing.T) {
	ev := gesture.Event{Kind: gesture.EventAborted, Reason: gesture.ReasonTimeout}
	if got := describeEvent(ev); got != "aborted: timeout" {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestInvalidPolicyRejected(t *testing.T) {
	l, err := layout.Builtin(layout.NameAlpha)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	eng, err := engine.New(&scripted{}, l, input.NewBuffer(input.ShiftOnce))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	cfg := practiceConfig()
	cfg.Advance = "sometimes"
	if _, err := NewModel(Options{Config: cfg, Engine: eng}); err == nil {
		t.Fatalf("expected error for unknown advance policy")
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
