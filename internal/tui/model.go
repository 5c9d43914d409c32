// Package tui provides the Bubble Tea gesture practice interface.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/flicktype/internal/engine"
	"github.com/verte-zerg/flicktype/internal/generator"
	"github.com/verte-zerg/flicktype/internal/hand"
	"github.com/verte-zerg/flicktype/internal/handsource"
	"github.com/verte-zerg/flicktype/internal/input"
	"github.com/verte-zerg/flicktype/internal/model"
	statsPkg "github.com/verte-zerg/flicktype/internal/stats"
	"github.com/verte-zerg/flicktype/internal/store"
	"github.com/verte-zerg/flicktype/internal/wordlist"
)

// FrameMsg carries one snapshot from the hand source pump.
type FrameMsg struct {
	Snapshot hand.Snapshot
}

// PhrasesMsg replaces the phrase list after the phrase file changed.
type PhrasesMsg struct {
	Phrases []string
}

// SourceDoneMsg reports that the hand source stopped.
type SourceDoneMsg struct {
	Err error
}

// Options wires a Model. Store and Sim may be nil.
type Options struct {
	Config    model.Config
	Engine    *engine.Engine
	Store     *store.Store
	Generator *generator.Generator
	Phrases   []string
	CapsPct   float64
	Sim       *handsource.Sim
	Source    string
	Logger    *zap.Logger
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	config    model.Config
	eng       *engine.Engine
	guide     *engine.Guide
	store     *store.Store
	gen       *generator.Generator
	phrases   []string
	capsPct   float64
	sim       *handsource.Sim
	source    string
	logger    *zap.Logger
	advance   input.AdvancePolicy
	backspace input.BackspacePolicy

	weakSet           map[rune]struct{}
	weakNoticePrinted bool

	keys keyMap
	help help.Model

	width  int
	height int

	tracked    [2]bool
	status     string
	sourceDone bool
	base       engine.Counters

	lastWPM float64
	lastAcc float64
	hasLast bool

	allWPM       float64
	allAcc       float64
	allCorrect   int
	allIncorrect int
	allDuration  int64
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = currentWordStyle.Underline(true)
	skippedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	hintStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FD17F"))
	bufferStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
)

// NewModel constructs the practice model and starts the first run.
func NewModel(opts Options) (*Model, error) {
	if opts.Engine == nil {
		return nil, errors.New("tui needs an engine")
	}
	advance, err := input.ParseAdvancePolicy(opts.Config.Advance)
	if err != nil {
		return nil, err
	}
	backspace, err := input.ParseBackspacePolicy(opts.Config.Backspace)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gen := opts.Generator
	if gen == nil {
		gen = generator.New()
	}
	m := &Model{
		config:    opts.Config,
		eng:       opts.Engine,
		guide:     engine.NewGuide(opts.Engine.Layout()),
		store:     opts.Store,
		gen:       gen,
		capsPct:   opts.CapsPct,
		sim:       opts.Sim,
		source:    opts.Source,
		logger:    logger,
		advance:   advance,
		backspace: backspace,
		keys:      newKeyMap(opts.Sim != nil),
		help:      help.New(),
		weakSet:   map[rune]struct{}{},
	}
	m.setPhrases(opts.Phrases)
	if m.config.FocusWeak {
		m.refreshWeakSet()
	}
	m.loadFooterStats()
	m.resetSession()
	return m, nil
}

func (m *Model) freeMode() bool {
	return m.config.Mode == model.ModeFree
}

func (m *Model) setPhrases(phrases []string) {
	m.phrases = wordlist.Filter(phrases, wordlist.FilterForLayout(m.guide.Producible))
	if len(m.phrases) == 0 && len(phrases) > 0 {
		m.logger.Warn("no phrase fits the layout; using unfiltered phrases",
			zap.String("layout", m.eng.Layout().Name()))
		m.phrases = phrases
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case FrameMsg:
		m.handleFrame(msg.Snapshot)
		return m, nil
	case PhrasesMsg:
		m.setPhrases(msg.Phrases)
		m.logger.Info("phrases reloaded", zap.Int("count", len(m.phrases)))
		return m, nil
	case SourceDoneMsg:
		m.sourceDone = true
		if msg.Err != nil {
			m.status = "source stopped: " + msg.Err.Error()
		} else {
			m.status = "source finished"
		}
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.resetSession()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		if m.sim != nil {
			m.sim.Press(msg.String())
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleFrame(s hand.Snapshot) {
	m.tracked = [2]bool{s.Left.Tracked, s.Right.Tracked}
	u := m.eng.Step(s)
	if len(u.Events) > 0 {
		m.status = describeEvent(u.Events[len(u.Events)-1])
	}
	if p := m.eng.Practice(); p != nil && p.Done() {
		m.finishSession()
		m.resetSession()
	}
}

func (m *Model) newPractice() *input.Practice {
	text := m.gen.Text(m.phrases, generator.Options{
		Count:   m.config.Phrases,
		CapsPct: m.capsPct,
		Weak:    m.weakSet,
		Factor:  m.config.WeakFactor,
	})
	return input.NewPractice(text, input.PracticeConfig{
		Advance:    m.advance,
		Backspace:  m.backspace,
		Producible: m.guide.Producible,
	})
}

func (m *Model) resetSession() {
	m.base = m.eng.Counters()
	if m.freeMode() {
		m.eng.SetPractice(nil)
		return
	}
	m.eng.SetPractice(m.newPractice())
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	ctx := context.Background()
	sessions, err := m.store.ListSessions(ctx, model.StatsConfig{Layout: m.config.Layout, Mode: model.ModePractice})
	if err != nil {
		m.logger.Error("failed to load session stats", zap.Error(err))
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	m.lastWPM, _, m.lastAcc = statsPkg.SessionMetrics(last.Correct, last.Incorrect, last.DurationMs)
	m.hasLast = true

	for _, s := range sessions {
		m.allCorrect += s.Correct
		m.allIncorrect += s.Incorrect
		m.allDuration += s.DurationMs
	}
	m.recomputeAllTime()
}

func (m *Model) recomputeAllTime() {
	m.allWPM, _, m.allAcc = statsPkg.SessionMetrics(m.allCorrect, m.allIncorrect, m.allDuration)
}

// finishSession records a completed run.
func (m *Model) finishSession() {
	p := m.eng.Practice()
	if p == nil || !p.Started() {
		return
	}
	sum := p.Summary()
	c := m.eng.Counters()
	stats := model.SessionStats{
		StartedAt:   sum.StartedAt,
		EndedAt:     sum.EndedAt,
		Mode:        model.ModePractice,
		Layout:      m.config.Layout,
		Source:      m.source,
		TargetChars: len([]rune(p.Target())),
		Correct:     sum.Correct,
		Mistakes:    sum.Mistakes,
		Resolved:    c.Resolved - m.base.Resolved,
		Aborted:     c.Aborted - m.base.Aborted,
		Cancelled:   c.Cancelled - m.base.Cancelled,
		DurationMs:  sum.EndedAt.Sub(sum.StartedAt).Milliseconds(),
	}
	m.lastWPM, _, m.lastAcc = statsPkg.SessionMetrics(stats.Correct, stats.Mistakes, stats.DurationMs)
	m.hasLast = true
	m.allCorrect += stats.Correct
	m.allIncorrect += stats.Mistakes
	m.allDuration += stats.DurationMs
	m.recomputeAllTime()

	if m.store == nil {
		return
	}
	ctx := context.Background()
	id, err := m.store.InsertSession(ctx, stats, sum.Chars)
	if err != nil {
		m.logger.Error("failed to save session", zap.Error(err))
		return
	}
	m.logger.Info("session saved",
		zap.Int64("id", id),
		zap.Int("correct", stats.Correct),
		zap.Int("mistakes", stats.Mistakes),
		zap.Int("resolved", stats.Resolved),
		zap.Int("aborted", stats.Aborted),
	)
	if m.config.FocusWeak {
		m.refreshWeakSet()
	}
}

func (m *Model) refreshWeakSet() {
	if m.store == nil {
		return
	}
	ctx := context.Background()
	aggs, err := m.store.GetWeakChars(ctx, m.config.WeakWindow, m.config.Layout)
	if err != nil {
		m.logger.Error("failed to load weak chars", zap.Error(err))
		return
	}
	if len(aggs) == 0 {
		if !m.weakNoticePrinted {
			m.logger.Info("no stats available for weak-char focus yet; using normal generator")
			m.weakNoticePrinted = true
		}
		m.weakSet = map[rune]struct{}{}
		return
	}
	m.weakSet = statsPkg.SelectWeakChars(aggs, m.config.WeakTop)
}
