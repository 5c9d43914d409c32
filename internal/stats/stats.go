// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/flicktype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionMetrics computes WPM, CPM, and accuracy for a session.
func SessionMetrics(correct, incorrect int, durationMs int64) (wpm, cpm, accuracy float64) {
	if durationMs <= 0 {
		return 0, 0, 0
	}
	minutes := float64(durationMs) / 60000.0
	wpm = (float64(correct) / 5.0) / minutes
	cpm = float64(correct) / minutes
	den := float64(correct + incorrect)
	if den > 0 {
		accuracy = float64(correct) / den
	}
	return wpm, cpm, accuracy
}

// GestureMetrics returns gestures spent per produced character and the
// share of gestures that aborted.
func GestureMetrics(s model.SessionAggregate) (perChar, abortRate float64) {
	total := s.Resolved + s.Aborted
	if produced := s.Correct + s.Incorrect; produced > 0 {
		perChar = float64(total) / float64(produced)
	}
	if total > 0 {
		abortRate = float64(s.Aborted) / float64(total)
	}
	return perChar, abortRate
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := range values {
		sum += values[i]
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := bounds(values)
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[clampIndex(idx, len(sparkChars))])
	}
	return b.String()
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalWPM, totalAcc, totalPerChar, totalAbort float64
	bestWPM := 0.0
	for _, s := range sessions {
		wpm, _, acc := SessionMetrics(s.Correct, s.Incorrect, s.DurationMs)
		perChar, abort := GestureMetrics(s)
		totalWPM += wpm
		totalAcc += acc
		totalPerChar += perChar
		totalAbort += abort
		bestWPM = math.Max(bestWPM, wpm)
	}
	count := float64(len(sessions))
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Avg WPM: %.2f", totalWPM/count),
		fmt.Sprintf("Best WPM: %.2f", bestWPM),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/count*100),
		fmt.Sprintf("Gestures/char: %.2f", totalPerChar/count),
		fmt.Sprintf("Aborted: %.2f%%", totalAbort/count*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints learning curves for WPM, accuracy and abort rate.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, width int) error {
	if len(sessions) == 0 {
		return nil
	}
	wpms := make([]float64, len(sessions))
	accs := make([]float64, len(sessions))
	aborts := make([]float64, len(sessions))
	for i, s := range sessions {
		wpm, _, acc := SessionMetrics(s.Correct, s.Incorrect, s.DurationMs)
		_, abort := GestureMetrics(s)
		wpms[i] = wpm
		accs[i] = acc * 100
		aborts[i] = abort * 100
	}
	return RenderChart(w, "Learning Curves", []Series{
		{Name: "WPM", Values: MovingAverage(wpms, window)},
		{Name: "Accuracy %", Values: MovingAverage(accs, window)},
		{Name: "Aborted %", Values: MovingAverage(aborts, window)},
	}, width)
}

// RenderCharTable prints per-character aggregates, weakest first.
func RenderCharTable(w io.Writer, aggs []model.CharAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No character stats found.")
		return err
	}
	byChar := make(map[string]model.CharAggregate, len(aggs))
	for _, agg := range aggs {
		byChar[agg.Char] = agg
	}

	if _, err := fmt.Fprintln(w, "Per-Character (Windowed)"); err != nil {
		return err
	}
	tbl := newTable(
		column{title: "Char"},
		column{title: "Accuracy", right: true},
		column{title: "Avg Latency (ms)", right: true},
		column{title: "Correct", right: true},
		column{title: "Incorrect", right: true},
	)
	for _, wc := range RankWeakChars(aggs, 0) {
		agg := byChar[wc.Char]
		tbl.add(
			CharLabel(agg.Char),
			fmt.Sprintf("%.2f%%", accuracy(agg)*100),
			fmt.Sprintf("%.1f", avgLatency(agg)),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		)
	}
	return tbl.write(w)
}

// CharLabel names whitespace characters for tables and charts.
func CharLabel(ch string) string {
	switch ch {
	case " ":
		return "<space>"
	case "\n":
		return "<enter>"
	}
	return ch
}

// RenderCharCurves prints per-character accuracy and latency curves.
func RenderCharCurves(w io.Writer, sessions []model.SessionAggregate, perSession map[int64]map[string]model.CharAggregate, chars []string, window, width int) error {
	if len(chars) == 0 || len(sessions) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Per-Character Curves"); err != nil {
		return err
	}
	for _, ch := range chars {
		accSeries := make([]float64, len(sessions))
		latSeries := make([]float64, len(sessions))
		for i, s := range sessions {
			agg, ok := perSession[s.SessionID][ch]
			if !ok {
				continue
			}
			if total := agg.Correct + agg.Incorrect; total > 0 {
				accSeries[i] = float64(agg.Correct) / float64(total) * 100
			}
			if agg.LatencyCount > 0 {
				latSeries[i] = float64(agg.LatencySumMs) / float64(agg.LatencyCount)
			}
		}
		if err := RenderChart(w, "Char "+CharLabel(ch), []Series{
			{Name: "Accuracy %", Values: MovingAverage(accSeries, window)},
			{Name: "Latency ms", Values: MovingAverage(latSeries, window)},
		}, width); err != nil {
			return err
		}
	}
	return nil
}
