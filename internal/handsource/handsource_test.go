package handsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/hand"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// openLandmarks returns a right hand of palm size 0.1, optionally pinching
// the index finger.
func openLandmarks(side string, pinch bool) hand.Landmarks {
	lm := hand.Landmarks{Handedness: side, Score: 0.9}
	lm.Points[hand.LmWrist] = direction.Vec3{X: 0.5, Y: 0.8}
	lm.Points[hand.LmMiddleMCP] = direction.Vec3{X: 0.5, Y: 0.7}
	lm.Points[hand.LmIndexMCP] = direction.Vec3{X: 0.45, Y: 0.7}
	lm.Points[hand.LmPinkyMCP] = direction.Vec3{X: 0.58, Y: 0.72}
	lm.Points[hand.LmThumbTip] = direction.Vec3{X: 0.3, Y: 0.6}
	lm.Points[hand.LmIndexTip] = direction.Vec3{X: 0.45, Y: 0.5}
	lm.Points[hand.LmMiddleTip] = direction.Vec3{X: 0.5, Y: 0.5}
	lm.Points[hand.LmRingTip] = direction.Vec3{X: 0.55, Y: 0.5}
	lm.Points[hand.LmPinkyTip] = direction.Vec3{X: 0.6, Y: 0.52}
	if pinch {
		lm.Points[hand.LmIndexTip] = direction.Vec3{X: 0.305, Y: 0.6}
	}
	return lm
}

func message(t *testing.T, ms int64, hands ...hand.Landmarks) []byte {
	t.Helper()
	data, err := json.Marshal(LandmarkMessage{Hands: hands, Timestamp: ms})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestDecodeLandmarks(t *testing.T) {
	snap, err := decodeLandmarks(message(t, t0.UnixMilli(), openLandmarks("right", true)), hand.DefaultLandmarkConfig(), time.Now)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.At.Equal(t0) {
		t.Fatalf("at = %v, want %v", snap.At, t0)
	}
	if !snap.Right.Tracked || snap.Left.Tracked {
		t.Fatalf("tracked right=%v left=%v", snap.Right.Tracked, snap.Left.Tracked)
	}
	if !snap.Right.IsPinching(hand.Index) || snap.Right.IsPinching(hand.Middle) {
		t.Fatalf("pinching = %v", snap.Right.Pinching)
	}

	fixed := t0.Add(time.Hour)
	snap, err = decodeLandmarks([]byte(`{"hands":[]}`), hand.DefaultLandmarkConfig(), func() time.Time { return fixed })
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if !snap.At.Equal(fixed) || snap.Right.Tracked {
		t.Fatalf("empty message = %+v", snap)
	}

	if _, err := decodeLandmarks([]byte("{"), hand.DefaultLandmarkConfig(), time.Now); err == nil {
		t.Fatalf("expected error for malformed message")
	}
}

func snapshots() []hand.Snapshot {
	var out []hand.Snapshot
	for i := 0; i < 3; i++ {
		s := hand.Snapshot{At: t0.Add(time.Duration(i) * 10 * time.Millisecond)}
		f := hand.Frame{Tracked: true}
		f.Joints[hand.Palm] = direction.Vec3{X: float64(i) * 0.1}
		f.Pinching[hand.Middle] = i > 0
		s.Right = f
		out = append(out, s)
	}
	return out
}

func recordFrames(t *testing.T, frames []hand.Snapshot) []byte {
	t.Helper()
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, "test")
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	for _, s := range frames {
		if err := rec.Write(s); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := rec.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if rec.Frames() != len(frames) {
		t.Fatalf("frames = %d, want %d", rec.Frames(), len(frames))
	}
	return buf.Bytes()
}

func TestRecordReplayRoundTrip(t *testing.T) {
	frames := snapshots()
	data := recordFrames(t, frames)
	if n := strings.Count(string(data), "\n"); n != len(frames)+1 {
		t.Fatalf("lines = %d, want %d", n, len(frames)+1)
	}

	r := NewReplay(bytes.NewReader(data), ReplayOptions{})
	var got []hand.Snapshot
	for {
		s, err := r.Sample(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("sample: %v", err)
		}
		got = append(got, s)
	}
	if diff := cmp.Diff(frames, got); diff != "" {
		t.Fatalf("replay mismatch (-want +got):\n%s", diff)
	}
	if r.Header().ID == "" || r.Header().Source != "test" {
		t.Fatalf("header = %+v", r.Header())
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestReplayLoopShiftsTime(t *testing.T) {
	frames := snapshots()
	r := NewReplay(bytes.NewReader(recordFrames(t, frames)), ReplayOptions{Loop: true})
	var last time.Time
	for i := 0; i < len(frames)*2+1; i++ {
		s, err := r.Sample(context.Background())
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		if i > 0 && !s.At.After(last) {
			t.Fatalf("sample %d at %v not after %v", i, s.At, last)
		}
		last = s.At
	}
	want := t0.Add(2 * (20*time.Millisecond + time.Millisecond))
	if !last.Equal(want) {
		t.Fatalf("last = %v, want %v", last, want)
	}
}

func TestReplayEmptyLoop(t *testing.T) {
	r := NewReplay(bytes.NewReader(recordFrames(t, nil)), ReplayOptions{Loop: true})
	if _, err := r.Sample(context.Background()); !errors.Is(err, ErrEmptyRecording) {
		t.Fatalf("err = %v, want ErrEmptyRecording", err)
	}
}

func TestReplayPacedHonoursContext(t *testing.T) {
	frames := []hand.Snapshot{{At: t0}, {At: t0.Add(time.Hour)}}
	r := NewReplay(bytes.NewReader(recordFrames(t, frames)), ReplayOptions{Paced: true})
	if _, err := r.Sample(context.Background()); err != nil {
		t.Fatalf("first sample: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Sample(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestOpenReplayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, recordFrames(t, snapshots()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := OpenReplay(path, ReplayOptions{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()
	if _, err := r.Sample(context.Background()); err != nil {
		t.Fatalf("sample: %v", err)
	}
	if _, err := OpenReplay(filepath.Join(t.TempDir(), "missing"), ReplayOptions{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTeeRecordsSamples(t *testing.T) {
	frames := snapshots()
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, "tee")
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	src := Tee(NewReplay(bytes.NewReader(recordFrames(t, frames)), ReplayOptions{}), rec)
	for {
		if _, err := src.Sample(context.Background()); err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("sample: %v", err)
			}
			break
		}
	}
	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	again := NewReplay(bytes.NewReader(buf.Bytes()), ReplayOptions{})
	n := 0
	for {
		if _, err := again.Sample(context.Background()); err != nil {
			break
		}
		n++
	}
	if n != len(frames) {
		t.Fatalf("teed frames = %d, want %d", n, len(frames))
	}
	if again.Header().ID != rec.ID() {
		t.Fatalf("header id = %q, want %q", again.Header().ID, rec.ID())
	}
}

func TestWSSourceReceivesFrames(t *testing.T) {
	src := NewWSSource(hand.DefaultLandmarkConfig(), nil)
	addr, err := src.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer src.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/landmarks", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, message(t, t0.UnixMilli(), openLandmarks("left", true))); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := src.Sample(ctx)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !snap.Left.Tracked || !snap.Left.IsPinching(hand.Index) {
		t.Fatalf("left = %+v", snap.Left)
	}
	conn.Close()
	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWSSourceKeepsLatest(t *testing.T) {
	src := NewWSSource(hand.DefaultLandmarkConfig(), nil)
	for i := 0; i < 3; i++ {
		src.push(hand.Snapshot{At: t0.Add(time.Duration(i) * time.Second)})
	}
	snap, err := src.Sample(context.Background())
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !snap.At.Equal(t0.Add(2 * time.Second)) {
		t.Fatalf("at = %v, want latest", snap.At)
	}
	if src.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", src.Dropped())
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Sample(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want canceled", err)
	}
}

func TestTrackerSourceReadsLines(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	dir := t.TempDir()
	payload := filepath.Join(dir, "frame.json")
	if err := os.WriteFile(payload, message(t, t0.UnixMilli(), openLandmarks("right", false)), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	script := filepath.Join(dir, "tracker.sh")
	body := "echo garbage\ncat \"$1\"\necho\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	src, err := StartTracker(TrackerConfig{Python: "/bin/sh", Script: script, Args: []string{payload}}, hand.DefaultLandmarkConfig(), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := src.Sample(ctx)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !snap.Right.Tracked || !snap.At.Equal(t0) {
		t.Fatalf("snapshot = %+v", snap)
	}
	if _, err := src.Sample(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want EOF", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestFindTrackerScript(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.Mkdir("scripts", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join("scripts", DefaultTrackerScript), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := FindTrackerScript()
	if filepath.Base(got) != DefaultTrackerScript || !filepath.IsAbs(got) {
		t.Fatalf("script = %q", got)
	}
}

func TestSimKeys(t *testing.T) {
	sim := NewSim(SimOptions{Now: func() time.Time { return t0 }})
	defer sim.Close()
	ctx := context.Background()

	rest, err := sim.Sample(ctx)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !rest.Right.Tracked || !rest.Left.Tracked {
		t.Fatalf("hands not tracked")
	}

	for _, key := range []string{"j", "right", "up", "w", "2"} {
		if !sim.Press(key) {
			t.Fatalf("key %q not bound", key)
		}
	}
	if sim.Press("?") {
		t.Fatalf("unbound key reported as handled")
	}
	moved, _ := sim.Sample(ctx)
	d := moved.Right.Position(hand.Palm).Sub(rest.Right.Position(hand.Palm))
	want := direction.Vec3{X: DefaultSimStep, Y: DefaultSimStep, Z: DefaultSimStep}
	if d.Distance(want) > 1e-9 {
		t.Fatalf("displacement = %+v, want %+v", d, want)
	}
	if !moved.Right.IsPinching(hand.Middle) {
		t.Fatalf("middle toggle not applied")
	}
	if !moved.Left.IsPinching(hand.Middle) {
		t.Fatalf("tap not applied")
	}

	next, _ := sim.Sample(ctx)
	if next.Left.IsPinching(hand.Middle) {
		t.Fatalf("tap lasted more than one frame")
	}
	if !next.Right.IsPinching(hand.Middle) {
		t.Fatalf("toggle released without a second press")
	}

	sim.Press(" ")
	sim.Press("t")
	centred, _ := sim.Sample(ctx)
	if centred.Right.Tracked {
		t.Fatalf("tracking toggle not applied")
	}
	if centred.Right.Position(hand.Palm).Distance(rest.Right.Position(hand.Palm)) > 1e-9 {
		t.Fatalf("recenter not applied")
	}
}

func TestSimWaveOscillates(t *testing.T) {
	sim := NewSim(SimOptions{})
	defer sim.Close()
	ctx := context.Background()
	base, _ := sim.Sample(ctx)
	sim.Wave()
	changes := 0
	prev := 0.0
	for i := 0; i < simWaveFrames+1; i++ {
		s, _ := sim.Sample(ctx)
		dx := s.Right.Position(hand.ThumbTip).X - base.Right.Position(hand.ThumbTip).X
		if prev != 0 && dx != 0 && (dx > 0) != (prev > 0) {
			changes++
		}
		prev = dx
	}
	if changes != simWaveFrames-1 {
		t.Fatalf("changes = %d, want %d", changes, simWaveFrames-1)
	}
}

func TestSimPacedClose(t *testing.T) {
	sim := NewSim(SimOptions{Interval: time.Hour})
	done := make(chan error, 1)
	go func() {
		_, err := sim.Sample(context.Background())
		done <- err
	}()
	sim.Close()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sample did not return after close")
	}
}
