package gesture

import (
	"math"
	"time"
)

// Wave counts reversals of horizontal motion inside a rolling window.
type Wave struct {
	minStep  float64
	required int
	window   time.Duration

	started     bool
	prevX       float64
	lastSign    float64
	changes     int
	windowStart time.Time
}

// NewWave creates a detector from cfg.
func NewWave(cfg WaveConfig) *Wave {
	return &Wave{minStep: cfg.MinStep, required: cfg.RequiredChanges, window: cfg.Window}
}

// Observe feeds the tracked x coordinate and reports whether the wave fired.
// Steps no larger than MinStep are ignored.
func (w *Wave) Observe(at time.Time, x float64) bool {
	if !w.started {
		w.started = true
		w.prevX = x
		w.windowStart = at
		return false
	}
	if at.Sub(w.windowStart) > w.window {
		w.changes = 0
		w.lastSign = 0
		w.windowStart = at
	}
	step := x - w.prevX
	w.prevX = x
	if math.Abs(step) <= w.minStep {
		return false
	}
	sign := math.Copysign(1, step)
	switch {
	case w.lastSign == 0:
		w.lastSign = sign
	case sign != w.lastSign:
		w.changes++
		w.lastSign = sign
	}
	if w.changes >= w.required {
		w.changes = 0
		w.lastSign = 0
		w.windowStart = at
		return true
	}
	return false
}

// Changes returns the reversals counted in the current window.
func (w *Wave) Changes() int {
	return w.changes
}

// Reset forgets all motion history.
func (w *Wave) Reset() {
	w.started = false
	w.changes = 0
	w.lastSign = 0
}
