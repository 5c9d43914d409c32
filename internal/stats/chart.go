package stats

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named data series for charts.
type Series struct {
	Name   string
	Values []float64
}

const (
	minChartWidth = 10
	fallbackWidth = 80
	rangeWidth    = 22
)

var barRunes = []rune("▁▂▃▄▅▆▇█")

var seriesColors = []lipgloss.Color{"6", "5", "3", "2", "4"}

// RenderChart prints one bar row per series, scaled to the series' own
// range, followed by its min and max. A non-positive width uses the
// terminal width.
func RenderChart(w io.Writer, title string, series []Series, width int) error {
	var rows []Series
	for _, s := range series {
		if len(s.Values) > 0 {
			rows = append(rows, s)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if width <= 0 {
		width = terminalWidth()
	}
	label := 0
	for _, s := range rows {
		label = max(label, runewidth.StringWidth(s.Name))
	}
	bars := max(width-label-rangeWidth-2, minChartWidth)
	color := shouldUseColor(w)

	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for i, s := range rows {
		lo, hi := bounds(s.Values)
		line := Bars(downsample(s.Values, bars))
		if color {
			line = lipgloss.NewStyle().Foreground(seriesColors[i%len(seriesColors)]).Render(line)
		}
		name := runewidth.FillRight(s.Name, label)
		if _, err := fmt.Fprintf(w, "%s  %s  %.1f..%.1f\n", name, line, lo, hi); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// Bars renders values as block characters between their own min and max.
func Bars(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := bounds(values)
	out := make([]rune, len(values))
	for i, v := range values {
		idx := len(barRunes) / 2
		if hi-lo > 1e-9 {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(len(barRunes)-1)))
		}
		out[i] = barRunes[clampIndex(idx, len(barRunes))]
	}
	return string(out)
}

// downsample averages values into at most width buckets.
func downsample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}
	out := make([]float64, width)
	for i := range out {
		start := i * len(values) / width
		end := max((i+1)*len(values)/width, start+1)
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
