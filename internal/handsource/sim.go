package handsource

import (
	"context"
	"sync"
	"time"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/hand"
)

// Simulated hand defaults.
const (
	DefaultSimStep     = 0.05
	DefaultSimInterval = 33 * time.Millisecond
	simWaveAmplitude   = 0.03
	simWaveFrames      = 6
)

// SimOptions configure a simulated hand.
type SimOptions struct {
	Step     float64
	Interval time.Duration
	Now      func() time.Time
}

// Sim is a keyboard-driven hand pair. The right hand moves and pinches; the
// left hand only taps, one frame per tap.
type Sim struct {
	opts SimOptions

	mu      sync.Mutex
	offset  direction.Vec3
	right   hand.Frame
	left    hand.Frame
	taps    [hand.FingerCount]bool
	wave    []float64
	ticker  *time.Ticker
	closed  chan struct{}
	closing sync.Once
}

// NewSim returns a simulated source with both hands tracked and open.
func NewSim(opts SimOptions) *Sim {
	if opts.Step <= 0 {
		opts.Step = DefaultSimStep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Sim{
		opts:   opts,
		right:  restingFrame(0.2),
		left:   restingFrame(-0.2),
		closed: make(chan struct{}),
	}
	if opts.Interval > 0 {
		s.ticker = time.NewTicker(opts.Interval)
	}
	return s
}

func restingFrame(x float64) hand.Frame {
	f := hand.Frame{Tracked: true}
	f.Joints[hand.Wrist] = direction.Vec3{X: x, Y: -0.1}
	f.Joints[hand.Palm] = direction.Vec3{X: x}
	for i := hand.Thumb; i <= hand.Pinky; i++ {
		f.Joints[i.Tip()] = direction.Vec3{X: x + float64(i-2)*0.02, Y: 0.08}
	}
	return f
}

// Move shifts the right hand one step toward d.
func (s *Sim) Move(d direction.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = s.offset.Add(d.Unit().Scale(s.opts.Step))
}

// Recenter returns the right hand to its resting position.
func (s *Sim) Recenter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = direction.Vec3{}
}

// Toggle flips a right-hand pinch and returns the new state.
func (s *Sim) Toggle(f hand.Finger) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.right.Pinching[f] = !s.right.Pinching[f]
	s.right.Bent[f] = s.right.Pinching[f]
	if s.right.Pinching[f] {
		s.right.Strength[f] = 1
	} else {
		s.right.Strength[f] = 0
	}
	return s.right.Pinching[f]
}

// Tap pinches a left-hand finger for the next frame.
func (s *Sim) Tap(f hand.Finger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taps[f] = true
}

// Wave queues a side-to-side thumb oscillation on the right hand.
func (s *Sim) Wave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wave = s.wave[:0]
	for i := 0; i < simWaveFrames; i++ {
		x := simWaveAmplitude
		if i%2 == 1 {
			x = -x
		}
		s.wave = append(s.wave, x)
	}
	s.wave = append(s.wave, 0)
}

// SetTracked hides or shows the right hand.
func (s *Sim) SetTracked(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.right.Tracked = on
}

// Tracked reports whether the right hand is visible.
func (s *Sim) Tracked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.right.Tracked
}

// Press applies a key binding and reports whether key is bound.
//
//	arrows, w/s  move right/left/up/down, forward/back
//	space        recenter
//	j k l        toggle middle, index and ring pinches
//	1 2 3        tap left index, middle and ring
//	x            wave
//	t            toggle tracking
func (s *Sim) Press(key string) bool {
	switch key {
	case "right":
		s.Move(direction.Right)
	case "left":
		s.Move(direction.Left)
	case "up":
		s.Move(direction.Up)
	case "down":
		s.Move(direction.Down)
	case "w":
		s.Move(direction.Forward)
	case "s":
		s.Move(direction.Back)
	case " ", "space":
		s.Recenter()
	case "j":
		s.Toggle(hand.Middle)
	case "k":
		s.Toggle(hand.Index)
	case "l":
		s.Toggle(hand.Ring)
	case "1":
		s.Tap(hand.Index)
	case "2":
		s.Tap(hand.Middle)
	case "3":
		s.Tap(hand.Ring)
	case "x":
		s.Wave()
	case "t":
		s.SetTracked(!s.Tracked())
	default:
		return false
	}
	return true
}

// Sample implements hand.Source. With an interval set, frames are paced by
// a ticker.
func (s *Sim) Sample(ctx context.Context) (hand.Snapshot, error) {
	if s.ticker != nil {
		select {
		case <-ctx.Done():
			return hand.Snapshot{}, ctx.Err()
		case <-s.closed:
			return hand.Snapshot{}, context.Canceled
		case <-s.ticker.C:
		}
	} else if err := ctx.Err(); err != nil {
		return hand.Snapshot{}, err
	}
	return s.frame(), nil
}

func (s *Sim) frame() hand.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	right := s.right
	for j := range right.Joints {
		right.Joints[j] = right.Joints[j].Add(s.offset)
	}
	if len(s.wave) > 0 {
		right.Joints[hand.ThumbTip].X += s.wave[0]
		s.wave = s.wave[1:]
	}

	left := s.left
	for f, on := range s.taps {
		if on {
			left.Pinching[f] = true
			left.Strength[f] = 1
			s.taps[f] = false
		}
	}
	return hand.Snapshot{At: s.opts.Now(), Left: left, Right: right}
}

// Close stops the ticker.
func (s *Sim) Close() error {
	s.closing.Do(func() {
		close(s.closed)
		if s.ticker != nil {
			s.ticker.Stop()
		}
	})
	return nil
}
