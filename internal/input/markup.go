package input

import "strings"

// Style tags a run of target text for a display widget.
type Style int

// Segment styles.
const (
	StyleDone Style = iota
	StyleWrong
	StyleCurrent
	StyleCurrentWrong
	StylePending
	StyleSkipped
)

// Segment is a run of target text sharing one style.
type Segment struct {
	Text  string
	Style Style
}

// Markup splits the practice target into styled runs: the completed prefix,
// the next expected rune and the pending remainder.
func Markup(p *Practice) []Segment {
	var out []Segment
	var cur strings.Builder
	curStyle := Style(-1)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, Segment{Text: cur.String(), Style: curStyle})
			cur.Reset()
		}
	}
	for i, r := range p.target {
		style := styleAt(p, i)
		if style != curStyle || style == StyleCurrent || style == StyleCurrentWrong {
			flush()
			curStyle = style
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

func styleAt(p *Practice, i int) Style {
	mark := p.marks[i]
	if i == p.cursor {
		if mark == MarkWrong {
			return StyleCurrentWrong
		}
		return StyleCurrent
	}
	switch mark {
	case MarkCorrect:
		return StyleDone
	case MarkWrong:
		return StyleWrong
	case MarkSkipped:
		return StyleSkipped
	default:
		return StylePending
	}
}

// Theme renders one styled segment.
type Theme func(text string, style Style) string

// Render joins segments through theme.
func Render(segs []Segment, theme Theme) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(theme(s.Text, s.Style))
	}
	return b.String()
}

// RichText is a Theme emitting color and underline tags understood by
// rich-text widgets.
func RichText(text string, style Style) string {
	switch style {
	case StyleDone:
		return "<color=#7FD17F>" + text + "</color>"
	case StyleWrong:
		return "<color=#FF4D4F>" + text + "</color>"
	case StyleCurrent:
		return "<u><color=#C89A3A>" + text + "</color></u>"
	case StyleCurrentWrong:
		return "<u><color=#FF4D4F>" + text + "</color></u>"
	case StyleSkipped:
		return "<color=#6E6E6E>" + text + "</color>"
	default:
		return text
	}
}

// Plain is a Theme that brackets the next expected rune.
func Plain(text string, style Style) string {
	if style == StyleCurrent || style == StyleCurrentWrong {
		return "[" + text + "]"
	}
	return text
}
