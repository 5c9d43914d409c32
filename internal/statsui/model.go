// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/flicktype/internal/model"
	"github.com/verte-zerg/flicktype/internal/stats"
	"github.com/verte-zerg/flicktype/internal/store"
)

const (
	tabOverview = iota
	tabWeakChars
	tabCharCurves
	tabLayouts
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

type inputMode int

const (
	inputNone inputMode = iota
	inputLayout
	inputChars
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig
	keys  keyMap
	help  help.Model

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	charTable table.Model

	width  int
	height int

	mode  inputMode
	input textinput.Model

	charSelection  []string
	charCustom     bool
	charPerSession map[int64]map[string]model.CharAggregate
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		keys:  newKeyMap(),
		help:  help.New(),
		tabs:  []string{"Overview", "Weak Chars", "Char Curves", "Layouts"},
	}
	m.charSelection = parseChars(cfg.Chars)
	m.charCustom = len(m.charSelection) > 0
	m.input = textinput.New()
	m.input.Cursor.SetMode(cursor.CursorBlink)
	m.charTable = table.New(table.WithColumns(charColumns()), table.WithStyles(charTableStyles()))
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
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
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tabs):
			if s := msg.String(); s == "left" || s == "h" {
				m.moveTab(-1)
			} else {
				m.moveTab(1)
			}
			return m, tea.ClearScreen
		case key.Matches(msg, m.keys.Window):
			if msg.String() == "=" {
				m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			} else {
				m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			}
			m.refreshReport()
			return m, nil
		case key.Matches(msg, m.keys.Layout):
			return m.startInput(inputLayout, "Layout: ", m.cfg.Layout)
		case key.Matches(msg, m.keys.Mode):
			m.cfg.Mode = nextMode(m.cfg.Mode)
			m.refreshReport()
			return m, nil
		case key.Matches(msg, m.keys.Chars) && m.activeTab == tabCharCurves:
			return m.startInput(inputChars, "Chars: ", strings.Join(m.charSelection, ""))
		}
		if m.activeTab == tabWeakChars {
			var cmd tea.Cmd
			m.charTable, cmd = m.charTable.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) startInput(mode inputMode, prompt, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		switch m.mode {
		case inputLayout:
			m.cfg.Layout = value
		case inputChars:
			m.charSelection = parseChars(value)
			m.charCustom = len(m.charSelection) > 0
		}
		m.mode = inputNone
		m.input.Blur()
		m.refreshReport()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.renderTabs() + "\n" + m.renderFilterSummary()
	footer := m.renderFooter()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)
	return strings.Join([]string{header, fitLines(m.renderBody(), m.width, bodyHeight), footer}, "\n")
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	header := lipgloss.Height(m.renderTabs()) + 1
	body := max(m.height-header-1, 1)
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = body
	}
	m.charTable.SetWidth(m.width)
	m.charTable.SetHeight(max(body-1, 1))
	m.input.Width = max(10, m.width-lipgloss.Width(m.input.Prompt)-2)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	m.keys.curves = m.activeTab == tabCharCurves
	if m.activeTab == tabWeakChars {
		m.charTable.Focus()
	} else {
		m.charTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderFilterSummary() string {
	layout := m.cfg.Layout
	if layout == "" {
		layout = "any"
	}
	mode := m.cfg.Mode
	if mode == "" {
		mode = "any"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = fmt.Sprint(m.cfg.Last)
	}
	return headerStyle.Render(fmt.Sprintf("Settings: layout=%s  mode=%s  since=%s  last=%s  window=%d",
		layout, mode, since, last, m.cfg.CurveWindow))
}

func (m *Model) renderFooter() string {
	if m.mode != inputNone {
		return m.input.View()
	}
	m.help.Width = m.width
	footer := m.help.View(m.keys)
	if m.errMsg != "" {
		return footer + "\n" + errorStyle.Render(m.errMsg)
	}
	return footer
}

func (m *Model) renderBody() string {
	if m.activeTab != tabWeakChars {
		return m.viewports[m.activeTab].View()
	}
	switch {
	case len(m.report.Sessions) == 0:
		return "No sessions found."
	case len(m.report.CharAggsAll) == 0:
		return "No character stats found."
	default:
		return tableMutedStyle.Render(m.charTable.View())
	}
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	if !m.charCustom {
		m.charSelection = stats.TopCharsByFrequency(report.CharAggsAll, 5)
	}
	m.charPerSession = nil
	if len(report.Sessions) > 0 && len(m.charSelection) > 0 {
		perSession, err := m.store.ListCharStatsForSessions(context.Background(), sessionIDs(report.Sessions), m.charSelection)
		if err != nil {
			m.errMsg = err.Error()
		}
		m.charPerSession = perSession
	}
	m.charTable.SetRows(charRows(report.CharAggsWindow))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" && len(m.report.Sessions) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Sessions, m.cfg.CurveWindow, width))
	m.viewports[tabCharCurves].SetContent(renderCharCurves(m.report.Sessions, m.charSelection, m.charPerSession, m.cfg.CurveWindow, width))
	m.viewports[tabLayouts].SetContent(renderWriter(func(buf *bytes.Buffer) error {
		return stats.RenderLayoutTable(buf, m.report.Layouts)
	}))
}

func renderOverview(sessions []model.SessionAggregate, window, width int) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	curves := renderWriter(func(buf *bytes.Buffer) error {
		return stats.RenderCurves(buf, sessions, window, width)
	})
	return renderSummaryCards(sessions, width) + "\n\n" + curves
}

func renderSummaryCards(sessions []model.SessionAggregate, width int) string {
	var totalWPM, totalAcc, totalPerChar, totalAbort float64
	bestWPM := 0.0
	for _, s := range sessions {
		wpm, _, acc := stats.SessionMetrics(s.Correct, s.Incorrect, s.DurationMs)
		perChar, abort := stats.GestureMetrics(s)
		totalWPM += wpm
		totalAcc += acc
		totalPerChar += perChar
		totalAbort += abort
		bestWPM = max(bestWPM, wpm)
	}
	count := float64(len(sessions))
	cards := []string{
		metricCard("Sessions", fmt.Sprintf("%d", len(sessions))),
		metricCard("Avg WPM", fmt.Sprintf("%.1f", totalWPM/count)),
		metricCard("Best WPM", fmt.Sprintf("%.1f", bestWPM)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", totalAcc/count*100)),
		metricCard("Gestures/char", fmt.Sprintf("%.2f", totalPerChar/count)),
		metricCard("Aborted", fmt.Sprintf("%.1f%%", totalAbort/count*100)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func renderCharCurves(sessions []model.SessionAggregate, chars []string, perSession map[int64]map[string]model.CharAggregate, window, width int) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}
	if len(chars) == 0 {
		return "No characters selected. Press Enter to set chars."
	}
	header := headerStyle.Render("Chars: " + strings.Join(chars, ", "))
	return header + "\n" + renderWriter(func(buf *bytes.Buffer) error {
		return stats.RenderCharCurves(buf, sessions, perSession, chars, window, width)
	})
}

func renderWriter(fn func(*bytes.Buffer) error) string {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return fmt.Sprintf("Failed to render: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func charColumns() []table.Column {
	return []table.Column{
		{Title: "Char", Width: 7},
		{Title: "Score", Width: 6},
		{Title: "Errors", Width: 8},
		{Title: "Avg Latency (ms)", Width: 17},
		{Title: "Attempts", Width: 8},
	}
}

// charRows lists the windowed characters weakest first.
func charRows(aggs []model.CharAggregate) []table.Row {
	ranked := stats.RankWeakChars(aggs, 0)
	rows := make([]table.Row, 0, len(ranked))
	for _, w := range ranked {
		rows = append(rows, table.Row{
			stats.CharLabel(w.Char),
			fmt.Sprintf("%.2f", w.Score),
			fmt.Sprintf("%.1f%%", w.ErrorRate*100),
			fmt.Sprintf("%.1f", w.AvgLatencyMs),
			fmt.Sprintf("%d", w.Attempts),
		})
	}
	return rows
}

func charTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}

// parseChars splits on commas when present, otherwise per rune. Whitespace
// is dropped.
func parseChars(input string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if strings.Contains(input, ",") {
		var out []string
		for _, part := range strings.Split(input, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	var out []string
	for _, r := range input {
		if !unicode.IsSpace(r) {
			out = append(out, string(r))
		}
	}
	return out
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

// nextMode cycles the session mode filter: any, practice, free.
func nextMode(mode string) string {
	switch mode {
	case "":
		return model.ModePractice
	case model.ModePractice:
		return model.ModeFree
	default:
		return ""
	}
}

func fitLines(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
