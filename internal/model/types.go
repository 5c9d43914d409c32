// Package model defines shared data structures.
package model

import "time"

// Session modes.
const (
	ModePractice = "practice"
	ModeFree     = "free"
)

// Config defines practice settings.
type Config struct {
	Layout      string
	Mode        string
	PhrasesPath string
	Phrases     int
	FocusWeak   bool
	WeakTop     int
	WeakFactor  float64
	WeakWindow  int
	Advance     string
	Backspace   string
	ShiftMode   string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Layout      string
	Mode        string
	Since       *time.Time
	Last        int
	CurveWindow int
	Chars       string
}

// SessionStats captures a completed session.
type SessionStats struct {
	StartedAt   time.Time
	EndedAt     time.Time
	Mode        string
	Layout      string
	Source      string
	TargetChars int
	Correct     int
	Mistakes    int
	Resolved    int
	Aborted     int
	Cancelled   int
	DurationMs  int64
}

// CharStats stores per-character stats for a session.
type CharStats struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// CharAggregate aggregates character stats across sessions.
type CharAggregate struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Mode       string
	Layout     string
	Correct    int
	Incorrect  int
	Resolved   int
	Aborted    int
	DurationMs int64
}
