package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/engine"
	"github.com/verte-zerg/flicktype/internal/gesture"
	"github.com/verte-zerg/flicktype/internal/layout"
)

// layered is implemented by recognizers that track the selected layer.
type layered interface {
	Layer() int
}

// View implements tea.Model.
func (m *Model) View() string {
	blocks := []string{m.renderHeader()}
	if p := m.eng.Practice(); p != nil {
		contentWidth := m.contentWidth()
		runes := buildStyledRunes(p)
		target := renderStyledRunes(runes)
		if contentWidth > 0 {
			target = lipgloss.NewStyle().Width(contentWidth).Render(wrapStyledRunes(runes, contentWidth))
		}
		blocks = append(blocks, target, m.renderHint())
	}
	blocks = append(blocks, m.renderBuffer())
	if row := m.renderCategoryRow(); row != "" {
		blocks = append(blocks, row)
	}
	if m.status != "" {
		blocks = append(blocks, footerStyle.Render(m.status))
	}
	content := strings.Join(blocks, "\n\n")
	if m.width == 0 || m.height == 0 {
		return content + "\n\n" + m.renderFooter()
	}
	bottom := m.renderFooter() + "\n" + m.help.View(m.keys)
	bottomHeight := lipgloss.Height(bottom)
	if m.height <= bottomHeight+1 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-bottomHeight, lipgloss.Center, lipgloss.Center, content)
	footer := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, bottom)
	return body + "\n" + footer
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	return max(int(float64(m.width)*0.70), 1)
}

func (m *Model) renderHeader() string {
	rec := m.eng.Recognizer()
	phase := rec.Phase()
	parts := []string{
		headerStyle.Render(m.eng.Layout().Name()),
		"phase " + phase.String(),
	}
	if phase != gesture.Idle {
		parts = append(parts, "category "+rec.Category().Arrow())
	}
	parts = append(parts, "hands "+trackMark("L", m.tracked[0])+" "+trackMark("R", m.tracked[1]))
	if m.source != "" {
		parts = append(parts, m.source)
	}
	return strings.Join(parts, "  ")
}

func trackMark(label string, on bool) string {
	if on {
		return label + "●"
	}
	return label + "○"
}

func (m *Model) renderBuffer() string {
	buf := m.eng.Buffer()
	text := buf.String()
	if text == "" {
		text = " "
	}
	shift := ""
	if buf.Shift() {
		shift = " ⇧"
	}
	return bufferStyle.Render("> "+text) + shift
}

// renderHint shows the gestures for the next expected rune.
func (m *Model) renderHint() string {
	p := m.eng.Practice()
	r, ok := p.Expected()
	if !ok {
		return ""
	}
	shift := m.eng.Buffer().Shift()
	h, ok := m.guide.Hint(r, shift)
	if !ok {
		return footerStyle.Render(fmt.Sprintf("no gesture for %q", r))
	}
	if pending := p.Pending(); pending != 0 && h.Modifier != layout.ModNone {
		// The base is in, only the modifier is left.
		return hintStyle.Render(fmt.Sprintf("next %s: %s", runeLabel(r), comboText(h.ModCombo)))
	}
	return hintStyle.Render(fmt.Sprintf("next %s: %s", runeLabel(r), hintText(h)))
}

func hintText(h engine.Hint) string {
	if !h.HasCombo {
		return "aux " + h.Action.String()
	}
	steps := make([]string, 0, 3)
	if h.Shift {
		steps = append(steps, "shift")
	}
	steps = append(steps, comboText(h.Combo))
	if h.Modifier != layout.ModNone {
		mod := layout.Key{Kind: layout.KindModifier, Modifier: h.Modifier}
		steps = append(steps, mod.Label()+" "+comboText(h.ModCombo))
	}
	return strings.Join(steps, " then ")
}

func comboText(c layout.Combo) string {
	return fmt.Sprintf("L%d %s %s", c.Layer+1, c.Category.Arrow(), c.Key.Arrow())
}

func runeLabel(r rune) string {
	if r == ' ' {
		return "␣"
	}
	return string(r)
}

// renderCategoryRow lists the keys reachable from the selected category.
func (m *Model) renderCategoryRow() string {
	rec := m.eng.Recognizer()
	if rec.Phase() == gesture.Idle || rec.Phase() == gesture.CategoryReady {
		return ""
	}
	layer := 0
	if l, ok := rec.(layered); ok {
		layer = l.Layer()
	}
	cat := rec.Category()
	cells := make([]string, 0, direction.Count)
	for _, d := range direction.All {
		k, err := m.eng.Layout().Lookup(layer, cat, d)
		if err != nil {
			continue
		}
		cells = append(cells, d.Arrow()+k.Label())
	}
	return pendingStyle.Render(strings.Join(cells, "  "))
}

func (m *Model) renderFooter() string {
	var segments []string
	if p := m.eng.Practice(); p != nil {
		segments = append(segments,
			fmt.Sprintf("Progress %d%%", int(p.Progress()*100)),
			fmt.Sprintf("Mistakes %d", p.Mistakes()),
		)
	}
	c := m.eng.Counters()
	resolved := c.Resolved - m.base.Resolved
	aborted := c.Aborted - m.base.Aborted
	segments = append(segments, fmt.Sprintf("Gestures %d · aborted %d", resolved, aborted))
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", m.lastWPM, m.lastAcc*100))
	}
	segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", m.allWPM, m.allAcc*100))
	return footerStyle.Render(strings.Join(segments, "  "))
}

func describeEvent(ev gesture.Event) string {
	switch ev.Kind {
	case gesture.EventStarted:
		return "gesture started"
	case gesture.EventCategoryResolved:
		return "category " + ev.Category.Arrow()
	case gesture.EventKeyStarted:
		return "key " + ev.Category.Arrow() + " …"
	case gesture.EventKeyResolved:
		return fmt.Sprintf("key %s %s on layer %d", ev.Category.Arrow(), ev.Key.Arrow(), ev.Layer+1)
	case gesture.EventAborted:
		return "aborted: " + ev.Reason
	case gesture.EventCancelled:
		return "cancelled: " + ev.Reason
	case gesture.EventAux:
		return "aux " + ev.Action.String()
	default:
		return ev.Kind.String()
	}
}
