package handsource

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/flicktype/internal/hand"
)

// Header is the first line of a recording.
type Header struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Source  string    `json:"source,omitempty"`
}

// record is one recording line: either a header or a snapshot.
type record struct {
	Header
	hand.Snapshot
}

// Recorder writes snapshots as JSON lines.
type Recorder struct {
	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder
	id  string
	n   int
}

// NewRecorder writes a header naming source and returns the recorder.
func NewRecorder(w io.Writer, source string) (*Recorder, error) {
	bw := bufio.NewWriter(w)
	r := &Recorder{w: bw, enc: json.NewEncoder(bw), id: uuid.NewString()}
	if err := r.enc.Encode(Header{ID: r.id, Created: time.Now().UTC(), Source: source}); err != nil {
		return nil, fmt.Errorf("failed to write recording header: %w", err)
	}
	return r, nil
}

// ID returns the recording id.
func (r *Recorder) ID() string {
	return r.id
}

// Frames returns the number of snapshots written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Write appends one snapshot.
func (r *Recorder) Write(s hand.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enc.Encode(s); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	r.n++
	return nil
}

// Flush writes buffered lines.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Flush()
}

// Tee wraps src so every sampled snapshot is also recorded.
func Tee(src hand.Source, rec *Recorder) hand.Source {
	return &tee{src: src, rec: rec}
}

type tee struct {
	src hand.Source
	rec *Recorder
}

func (t *tee) Sample(ctx context.Context) (hand.Snapshot, error) {
	s, err := t.src.Sample(ctx)
	if err != nil {
		return s, err
	}
	if err := t.rec.Write(s); err != nil {
		return s, err
	}
	return s, nil
}

func (t *tee) Close() error {
	ferr := t.rec.Flush()
	if err := t.src.Close(); err != nil {
		return err
	}
	return ferr
}
