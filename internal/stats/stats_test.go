package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/flicktype/internal/model"
)

func TestSessionMetrics(t *testing.T) {
	wpm, cpm, acc := SessionMetrics(50, 10, 60000)
	if wpm != 10 || cpm != 50 {
		t.Fatalf("wpm=%v cpm=%v", wpm, cpm)
	}
	if math.Abs(acc-50.0/60.0) > 1e-9 {
		t.Fatalf("accuracy = %v", acc)
	}
	if wpm, cpm, acc := SessionMetrics(5, 0, 0); wpm != 0 || cpm != 0 || acc != 0 {
		t.Fatalf("zero duration should yield zeros")
	}
}

func TestGestureMetrics(t *testing.T) {
	perChar, abort := GestureMetrics(model.SessionAggregate{Correct: 8, Incorrect: 2, Resolved: 12, Aborted: 3})
	if perChar != 1.5 || abort != 0.2 {
		t.Fatalf("perChar=%v abort=%v", perChar, abort)
	}
	if perChar, abort := GestureMetrics(model.SessionAggregate{}); perChar != 0 || abort != 0 {
		t.Fatalf("empty session should yield zeros")
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSparklineAndBars(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("sparkline = %q", got)
	}
	if got := Sparkline([]float64{3, 3}); got != "++" {
		t.Fatalf("flat sparkline = %q", got)
	}
	if got := Bars([]float64{0, 1}); got != "▁█" {
		t.Fatalf("bars = %q", got)
	}
}

func TestDownsample(t *testing.T) {
	got := downsample([]float64{1, 3, 5, 7}, 2)
	if len(got) != 2 || got[0] != 2 || got[1] != 6 {
		t.Fatalf("downsample = %v", got)
	}
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChart(&buf, "Curves", []Series{
		{Name: "WPM", Values: []float64{1, 2, 3}},
		{Name: "Empty"},
		{Name: "Accuracy %", Values: []float64{90, 95}},
	}, 60)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 || lines[0] != "Curves" {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[1], "WPM         ▁") || !strings.HasSuffix(lines[1], "1.0..3.0") {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("color written to a non-terminal")
	}
}

func TestRenderCharTableWideChars(t *testing.T) {
	var buf bytes.Buffer
	err := RenderCharTable(&buf, []model.CharAggregate{
		{Char: "か", Correct: 1, Incorrect: 1},
		{Char: " ", Correct: 4},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if !strings.HasPrefix(lines[2], "か") || !strings.HasPrefix(lines[3], "<space>") {
		t.Fatalf("unexpected order:\n%s", buf.String())
	}
	if runewidth.StringWidth(lines[2]) != runewidth.StringWidth(lines[3]) {
		t.Fatalf("wide char misaligned:\n%s", buf.String())
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil || !strings.Contains(buf.String(), "No sessions") {
		t.Fatalf("empty summary = %q, %v", buf.String(), err)
	}
	buf.Reset()
	sessions := []model.SessionAggregate{{Correct: 50, DurationMs: 60000, Resolved: 60, Aborted: 10}}
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Avg WPM: 10.00", "Gestures/char: 1.40", "Aborted: 14.29%"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("missing %q in:\n%s", want, buf.String())
		}
	}
}
