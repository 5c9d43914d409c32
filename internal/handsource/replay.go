package handsource

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/verte-zerg/flicktype/internal/hand"
)

// ErrEmptyRecording is returned when a looping replay has no frames.
var ErrEmptyRecording = errors.New("recording has no frames")

const maxLine = 1 << 20

// ReplayOptions control playback.
type ReplayOptions struct {
	// Paced sleeps between frames according to their timestamps.
	Paced bool
	// Loop restarts from the first frame at the end.
	Loop bool
	// Speed scales paced playback; zero means real time.
	Speed float64
}

// Replay plays back a JSON-lines recording.
type Replay struct {
	opts   ReplayOptions
	rs     io.ReadSeeker
	closer io.Closer
	sc     *bufio.Scanner
	header Header
	line   int

	prevAt   time.Time
	prevWall time.Time
	played   int
	shift    time.Duration
	lastAt   time.Time
	firstAt  time.Time
}

// OpenReplay opens a recording file.
func OpenReplay(path string, opts ReplayOptions) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	r := NewReplay(f, opts)
	r.closer = f
	return r, nil
}

// NewReplay reads a recording from rs.
func NewReplay(rs io.ReadSeeker, opts ReplayOptions) *Replay {
	r := &Replay{opts: opts, rs: rs}
	r.rewind()
	return r
}

func (r *Replay) rewind() {
	r.sc = bufio.NewScanner(r.rs)
	r.sc.Buffer(make([]byte, 64*1024), maxLine)
	r.line = 0
}

// Header returns the recording header once the first frame was read.
func (r *Replay) Header() Header {
	return r.header
}

// Sample implements hand.Source.
func (r *Replay) Sample(ctx context.Context) (hand.Snapshot, error) {
	for {
		if err := ctx.Err(); err != nil {
			return hand.Snapshot{}, err
		}
		if !r.sc.Scan() {
			if err := r.sc.Err(); err != nil {
				return hand.Snapshot{}, fmt.Errorf("failed to read recording: %w", err)
			}
			if !r.opts.Loop {
				return hand.Snapshot{}, io.EOF
			}
			if r.played == 0 {
				return hand.Snapshot{}, ErrEmptyRecording
			}
			if _, err := r.rs.Seek(0, io.SeekStart); err != nil {
				return hand.Snapshot{}, fmt.Errorf("failed to rewind recording: %w", err)
			}
			r.shift += r.lastAt.Sub(r.firstAt) + time.Millisecond
			r.rewind()
			continue
		}
		r.line++
		data := r.sc.Bytes()
		if len(data) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return hand.Snapshot{}, fmt.Errorf("recording line %d: %w", r.line, err)
		}
		if rec.ID != "" {
			r.header = rec.Header
			continue
		}
		snap := rec.Snapshot
		if r.played == 0 {
			r.firstAt = snap.At
		}
		r.lastAt = snap.At
		snap.At = snap.At.Add(r.shift)
		if err := r.pace(ctx, snap.At); err != nil {
			return hand.Snapshot{}, err
		}
		r.played++
		return snap, nil
	}
}

func (r *Replay) pace(ctx context.Context, at time.Time) error {
	if !r.opts.Paced {
		return nil
	}
	now := time.Now()
	if !r.prevAt.IsZero() {
		gap := at.Sub(r.prevAt)
		if r.opts.Speed > 0 {
			gap = time.Duration(float64(gap) / r.opts.Speed)
		}
		if wait := r.prevWall.Add(gap).Sub(now); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
			now = time.Now()
		}
	}
	r.prevAt = at
	r.prevWall = now
	return nil
}

// Close implements hand.Source.
func (r *Replay) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
