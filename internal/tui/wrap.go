package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/flicktype/internal/input"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes renders the practice target one rune at a time so the
// wrapper can break lines on spaces.
func buildStyledRunes(p *input.Practice) []styledRune {
	target := []rune(p.Target())
	wordStart, wordEnd := 0, 0
	if !p.Done() {
		wordStart, wordEnd = currentWord(target, p.Cursor())
	}

	out := make([]styledRune, 0, len(target))
	i := 0
	for _, seg := range input.Markup(p) {
		for _, r := range seg.Text {
			displayed := r
			style := pendingStyle
			switch seg.Style {
			case input.StyleDone:
				style = correctStyle
			case input.StyleWrong:
				style = incorrectStyle
				if r == ' ' {
					displayed = '•'
				}
			case input.StyleCurrent:
				style = cursorStyle
			case input.StyleCurrentWrong:
				style = incorrectStyle.Underline(true)
			case input.StyleSkipped:
				style = skippedStyle
			default:
				if i >= wordStart && i < wordEnd {
					style = currentWordStyle
				}
			}
			out = append(out, styledRune{
				s:       style.Render(string(displayed)),
				width:   runewidth.RuneWidth(displayed),
				isSpace: r == ' ',
			})
			i++
		}
	}
	return out
}

// currentWord returns the rune range of the word holding the cursor. A
// cursor on a space selects the following word.
func currentWord(target []rune, cursor int) (start, end int) {
	for cursor >= 0 && cursor < len(target) && target[cursor] == ' ' {
		cursor++
	}
	if cursor < 0 || cursor >= len(target) {
		return 0, 0
	}
	start, end = cursor, cursor
	for start > 0 && target[start-1] != ' ' {
		start--
	}
	for end < len(target) && target[end] != ' ' {
		end++
	}
	return start, end
}

// wrapStyledRunes packs whole words into lines of at most width cells. A
// space that falls on a break is dropped and a word wider than the line is
// split.
func wrapStyledRunes(runes []styledRune, width int) string {
	var out strings.Builder
	if width <= 0 {
		for _, r := range runes {
			out.WriteString(r.s)
		}
		return out.String()
	}

	col := 0
	newline := func() {
		out.WriteByte('\n')
		col = 0
	}
	for i := 0; i < len(runes); {
		if runes[i].isSpace {
			if col > 0 && col+runes[i].width <= width {
				out.WriteString(runes[i].s)
				col += runes[i].width
			} else if col > 0 {
				newline()
			}
			i++
			continue
		}
		j, w := i, 0
		for j < len(runes) && !runes[j].isSpace {
			w += runes[j].width
			j++
		}
		if col > 0 && col+w > width {
			newline()
		}
		for ; i < j; i++ {
			if col > 0 && col+runes[i].width > width {
				newline()
			}
			out.WriteString(runes[i].s)
			col += runes[i].width
		}
	}
	return out.String()
}
