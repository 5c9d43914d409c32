package gesture

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/hand"
)

type driver struct {
	t     *testing.T
	d     *Decoder
	at    time.Time
	right hand.Frame
	left  hand.Frame
}

func newDriver(t *testing.T, cfg Config, opts ...Option) *driver {
	t.Helper()
	d, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	return &driver{
		t:     t,
		d:     d,
		at:    time.Unix(1000, 0),
		right: hand.Frame{Tracked: true},
	}
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Wave.Enabled = false
	return cfg
}

func (dr *driver) move(x, y, z float64) *driver {
	dr.right.Joints[hand.Palm] = direction.Vec3{X: x, Y: y, Z: z}
	return dr
}

func (dr *driver) pinch(f hand.Finger, on bool) *driver {
	dr.right.Pinching[f] = on
	return dr
}

func (dr *driver) tick() []Event {
	dr.at = dr.at.Add(20 * time.Millisecond)
	return dr.d.Step(hand.Snapshot{At: dr.at, Left: dr.left, Right: dr.right})
}

type brief struct {
	Kind     EventKind
	Phase    Phase
	Category direction.Direction
	Key      direction.Direction
	Layer    int
	Action   Action
	Reason   string
}

func briefs(events []Event) []brief {
	out := make([]brief, 0, len(events))
	for _, e := range events {
		out = append(out, brief{e.Kind, e.Phase, e.Category, e.Key, e.Layer, e.Action, e.Reason})
	}
	return out
}

func expect(t *testing.T, got []Event, want ...brief) {
	t.Helper()
	if diff := cmp.Diff(want, briefs(got), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

const none = direction.None

func TestTwoStageResolvesKey(t *testing.T) {
	dr := newDriver(t, quietConfig())
	expect(t, dr.tick())
	expect(t, dr.pinch(hand.Middle, true).tick(),
		brief{Kind: EventStarted, Phase: CategoryReady, Category: none, Key: none})
	expect(t, dr.move(0.1, 0, 0).tick())
	expect(t, dr.pinch(hand.Index, true).tick(),
		brief{Kind: EventCategoryResolved, Phase: KeySelecting, Category: direction.Right, Key: none})
	if dr.d.Category() != direction.Right {
		t.Fatalf("expected pending category right, got %v", dr.d.Category())
	}
	expect(t, dr.move(0.1, 0.1, 0).tick())
	expect(t, dr.pinch(hand.Index, false).tick(),
		brief{Kind: EventKeyResolved, Phase: Idle, Category: direction.Right, Key: direction.Up})
	expect(t, dr.pinch(hand.Middle, false).tick())
	if dr.d.Phase() != Idle {
		t.Fatalf("expected idle, got %v", dr.d.Phase())
	}
}

func TestBelowThresholdAborts(t *testing.T) {
	dr := newDriver(t, quietConfig())
	dr.pinch(hand.Middle, true).tick()
	dr.move(0.01, 0, 0).tick()
	expect(t, dr.pinch(hand.Index, true).tick(),
		brief{Kind: EventAborted, Phase: Idle, Category: none, Key: none, Reason: ReasonBelowThreshold})
	expect(t, dr.pinch(hand.Index, false).tick())

	dr.pinch(hand.Middle, false).tick()
	dr.pinch(hand.Middle, true).tick()
	dr.move(0.2, 0, 0).pinch(hand.Index, true).tick()
	dr.move(0.21, 0, 0)
	expect(t, dr.pinch(hand.Index, false).tick(),
		brief{Kind: EventAborted, Phase: Idle, Category: direction.Right, Key: none, Reason: ReasonBelowThreshold})
}

func TestNoDirectionAborts(t *testing.T) {
	cfg := quietConfig()
	cfg.Classifier = direction.DotProduct{Epsilon: direction.DefaultEpsilon, MinCos: direction.Cos45}
	dr := newDriver(t, cfg)
	dr.pinch(hand.Middle, true).tick()
	dr.move(0.1, 0.1, 0)
	expect(t, dr.pinch(hand.Index, true).tick(),
		brief{Kind: EventAborted, Phase: Idle, Category: none, Key: none, Reason: ReasonNoDirection})
}

func TestCancels(t *testing.T) {
	t.Run("category release", func(t *testing.T) {
		dr := newDriver(t, quietConfig())
		dr.pinch(hand.Middle, true).tick()
		expect(t, dr.pinch(hand.Middle, false).tick(),
			brief{Kind: EventCancelled, Phase: Idle, Category: none, Key: none, Reason: ReasonCategoryRelease})
	})
	t.Run("category release allowed", func(t *testing.T) {
		cfg := quietConfig()
		cfg.CancelOnCategoryRelease = false
		dr := newDriver(t, cfg)
		dr.pinch(hand.Middle, true).tick()
		expect(t, dr.pinch(hand.Middle, false).tick())
		dr.move(0, -0.1, 0)
		expect(t, dr.pinch(hand.Index, true).tick(),
			brief{Kind: EventCategoryResolved, Phase: KeySelecting, Category: direction.Down, Key: none})
	})
	t.Run("category repeat", func(t *testing.T) {
		dr := newDriver(t, quietConfig())
		dr.pinch(hand.Middle, true).tick()
		dr.move(0, 0, 0.1).pinch(hand.Index, true).tick()
		dr.pinch(hand.Middle, false).tick()
		expect(t, dr.pinch(hand.Middle, true).tick(),
			brief{Kind: EventCancelled, Phase: Idle, Category: direction.Forward, Key: none, Reason: ReasonCategoryRepeat})
	})
	t.Run("timeout", func(t *testing.T) {
		cfg := quietConfig()
		cfg.Timeout = 100 * time.Millisecond
		dr := newDriver(t, cfg)
		dr.pinch(hand.Middle, true).tick()
		for i := 0; i < 4; i++ {
			expect(t, dr.tick())
		}
		expect(t, dr.tick(),
			brief{Kind: EventCancelled, Phase: Idle, Category: none, Key: none, Reason: ReasonTimeout})
	})
	t.Run("hand lost", func(t *testing.T) {
		dr := newDriver(t, quietConfig())
		dr.pinch(hand.Middle, true).tick()
		dr.right.Tracked = false
		expect(t, dr.tick(),
			brief{Kind: EventCancelled, Phase: Idle, Category: none, Key: none, Reason: ReasonHandLost})
		expect(t, dr.tick())
	})
}

func TestDeadlineReplacedOnPhaseChange(t *testing.T) {
	cfg := quietConfig()
	cfg.Timeout = 100 * time.Millisecond
	dr := newDriver(t, cfg)
	dr.pinch(hand.Middle, true).tick()
	first := dr.d.Deadline()
	dr.tick()
	dr.tick()
	dr.move(-0.1, 0, 0).pinch(hand.Index, true).tick()
	if !dr.d.Deadline().After(first) {
		t.Fatalf("expected deadline to move forward, got %v after %v", dr.d.Deadline(), first)
	}
	dr.tick()
	dr.tick()
	if dr.d.Phase() != KeySelecting {
		t.Fatalf("expected key selecting to survive the first deadline, got %v", dr.d.Phase())
	}
}

func TestThreeStageWithLayers(t *testing.T) {
	cfg := quietConfig()
	cfg.Stages = 3
	cfg.KeyFingers = []hand.Finger{hand.Index, hand.Ring}
	cfg.Aux = nil
	dr := newDriver(t, cfg)
	dr.pinch(hand.Middle, true).tick()
	dr.move(0.1, 0, 0)
	expect(t, dr.pinch(hand.Middle, false).tick(),
		brief{Kind: EventCategoryResolved, Phase: CategorySelected, Category: direction.Right, Key: none})
	expect(t, dr.pinch(hand.Ring, true).tick(),
		brief{Kind: EventKeyStarted, Phase: KeySelecting, Category: direction.Right, Key: none, Layer: 1})
	dr.move(0.1, -0.1, 0)
	expect(t, dr.pinch(hand.Ring, false).tick(),
		brief{Kind: EventKeyResolved, Phase: Idle, Category: direction.Right, Key: direction.Down, Layer: 1})
}

func TestBendTrigger(t *testing.T) {
	cfg := quietConfig()
	cfg.Trigger = TriggerBend
	dr := newDriver(t, cfg)
	dr.right.Bent[hand.Middle] = true
	expect(t, dr.tick(), brief{Kind: EventStarted, Phase: CategoryReady, Category: none, Key: none})
	dr.move(0, 0, -0.1)
	dr.right.Bent[hand.Index] = true
	expect(t, dr.tick(), brief{Kind: EventCategoryResolved, Phase: KeySelecting, Category: direction.Back, Key: none})
}

func TestAuxOnlyWhileIdle(t *testing.T) {
	dr := newDriver(t, quietConfig())
	dr.left = hand.Frame{Tracked: true}

	dr.left.Pinching[hand.Index] = true
	expect(t, dr.tick(), brief{Kind: EventAux, Phase: Idle, Category: none, Key: none, Action: ActionSpace})
	dr.left.Pinching[hand.Index] = false
	dr.tick()

	// A phase event in the same tick suppresses the aux action.
	dr.left.Pinching[hand.Middle] = true
	expect(t, dr.pinch(hand.Middle, true).tick(),
		brief{Kind: EventStarted, Phase: CategoryReady, Category: none, Key: none})

	dr.left.Pinching[hand.Ring] = true
	expect(t, dr.tick())
}

func TestWaveBackspace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aux = nil
	dr := newDriver(t, cfg)
	var got []Event
	for i, x := range []float64{0, 0.05, 0, 0.05, 0, 0.05} {
		dr.right.Joints[hand.ThumbTip].X = x
		events := dr.tick()
		if i < 5 && len(events) != 0 {
			t.Fatalf("unexpected events at sample %d: %+v", i, events)
		}
		got = events
	}
	expect(t, got, brief{Kind: EventAux, Phase: Idle, Category: none, Key: none, Action: ActionBackspace, Reason: "wave"})
}

func TestWaveIgnoresMotionDuringGesture(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aux = nil
	dr := newDriver(t, cfg)
	thumb := 0.0
	wobble := func() *driver {
		thumb = 0.05 - thumb
		dr.right.Joints[hand.ThumbTip].X = thumb
		return dr
	}

	steps := []func() *driver{
		func() *driver { return wobble().pinch(hand.Middle, true) },
		wobble, wobble, wobble,
		func() *driver { return wobble().move(0.1, 0, 0).pinch(hand.Index, true) },
		wobble, wobble,
		func() *driver { return wobble().move(0.1, 0.1, 0).pinch(hand.Index, false) },
	}
	var resolved bool
	for i, step := range steps {
		for _, e := range step().tick() {
			switch e.Kind {
			case EventAux:
				t.Fatalf("aux event during gesture at step %d: %+v", i, e)
			case EventKeyResolved:
				resolved = true
			}
		}
	}
	if !resolved {
		t.Fatalf("expected the flick to resolve a key")
	}
	if events := wobble().pinch(hand.Middle, false).tick(); len(events) != 0 {
		t.Fatalf("stale reversals fired on the first idle tick: %+v", events)
	}

	// A complete wave made while idle still fires.
	var got []Event
	for i := 0; i < 5 && len(got) == 0; i++ {
		got = wobble().tick()
	}
	expect(t, got, brief{Kind: EventAux, Phase: Idle, Category: none, Key: none, Action: ActionBackspace, Reason: "wave"})
}

func TestWaveWindowExpires(t *testing.T) {
	w := NewWave(WaveConfig{MinStep: 0.01, RequiredChanges: 4, Window: 500 * time.Millisecond})
	at := time.Unix(0, 0)
	for _, x := range []float64{0, 0.05, 0, 0.05, 0, 0.05, 0} {
		if w.Observe(at, x) {
			t.Fatalf("slow wave should not fire")
		}
		at = at.Add(300 * time.Millisecond)
	}
	w.Reset()
	at = time.Unix(10, 0)
	fired := 0
	for _, x := range []float64{0, 0.005, 0, 0.005, 0, 0.005} {
		if w.Observe(at, x) {
			fired++
		}
		at = at.Add(10 * time.Millisecond)
	}
	if fired != 0 || w.Changes() != 0 {
		t.Fatalf("steps under MinStep should be ignored, fired=%d changes=%d", fired, w.Changes())
	}
}

func TestObserverSeesEvents(t *testing.T) {
	var seen []Event
	dr := newDriver(t, quietConfig(), WithObserver(func(e Event) { seen = append(seen, e) }))
	var all []Event
	all = append(all, dr.pinch(hand.Middle, true).tick()...)
	all = append(all, dr.move(0.1, 0, 0).pinch(hand.Index, true).tick()...)
	all = append(all, dr.move(0.2, 0, 0).pinch(hand.Index, false).tick()...)
	if diff := cmp.Diff(all, seen); diff != "" {
		t.Fatalf("observer mismatch (-step +observer):\n%s", diff)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 events, got %d", len(seen))
	}
}

func TestKeyNeverResolvesWithoutFullTraversal(t *testing.T) {
	cfg := quietConfig()
	cfg.Timeout = 200 * time.Millisecond
	rng := rand.New(rand.NewSource(7))
	for _, stages := range []int{2, 3} {
		cfg.Stages = stages
		dr := newDriver(t, cfg)
		state := 0
		for i := 0; i < 5000; i++ {
			switch rng.Intn(5) {
			case 0:
				dr.pinch(hand.Middle, rng.Intn(2) == 0)
			case 1:
				dr.pinch(hand.Index, rng.Intn(2) == 0)
			case 2:
				dr.right.Tracked = rng.Intn(10) != 0
			default:
				p := dr.right.Joints[hand.Palm]
				dr.move(p.X+rng.Float64()*0.1-0.05, p.Y+rng.Float64()*0.1-0.05, p.Z+rng.Float64()*0.1-0.05)
			}
			for _, e := range dr.tick() {
				switch e.Kind {
				case EventStarted:
					if state != 0 {
						t.Fatalf("stages=%d: start while in state %d", stages, state)
					}
					state = 1
				case EventCategoryResolved:
					if state != 1 {
						t.Fatalf("stages=%d: category without start", stages)
					}
					state = 2
				case EventKeyStarted:
					if state != 2 {
						t.Fatalf("stages=%d: key start without category", stages)
					}
				case EventKeyResolved:
					if state != 2 || e.Phase != Idle || !e.Key.Valid() || !e.Category.Valid() {
						t.Fatalf("stages=%d: key resolved out of order: %+v", stages, e)
					}
					state = 0
				case EventAborted, EventCancelled:
					if e.Phase != Idle {
						t.Fatalf("stages=%d: abort must return to idle", stages)
					}
					state = 0
				}
			}
		}
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"stages":     func(c *Config) { c.Stages = 4 },
		"classifier": func(c *Config) { c.Classifier = nil },
		"no keys":    func(c *Config) { c.KeyFingers = nil },
		"dup finger": func(c *Config) { c.KeyFingers = []hand.Finger{hand.Middle} },
		"aux clash":  func(c *Config) { c.Aux = []AuxBinding{{Hand: hand.Right, Finger: hand.Index, Action: ActionSpace}} },
		"aux none":   func(c *Config) { c.Aux = []AuxBinding{{Hand: hand.Left, Finger: hand.Index}} },
		"wave":       func(c *Config) { c.Wave.RequiredChanges = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if _, err := New(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if _, err := New(DefaultConfig()); err != nil {
		t.Fatalf("default config: %v", err)
	}
}
