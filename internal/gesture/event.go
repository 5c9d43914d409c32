// Package gesture decodes pinch and bend edges into two-stage flick gestures.
package gesture

import (
	"fmt"
	"strings"
	"time"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/hand"
)

// Phase is the decoder state.
type Phase int

// Decoder phases. CategorySelected is only used by the three-stage variant.
const (
	Idle Phase = iota
	CategoryReady
	CategorySelected
	KeySelecting
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case CategoryReady:
		return "category"
	case CategorySelected:
		return "selected"
	case KeySelecting:
		return "key"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Trigger selects which finger signal drives the decoder.
type Trigger int

// Triggers.
const (
	TriggerPinch Trigger = iota
	TriggerBend
)

func (t Trigger) String() string {
	if t == TriggerBend {
		return "bend"
	}
	return "pinch"
}

// ParseTrigger resolves "pinch" or "bend".
func ParseTrigger(s string) (Trigger, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pinch":
		return TriggerPinch, nil
	case "bend":
		return TriggerBend, nil
	default:
		return TriggerPinch, fmt.Errorf("unknown trigger %q (want pinch or bend)", s)
	}
}

// Action is a one-shot control produced outside the phase machine.
type Action int

// Actions.
const (
	ActionNone Action = iota
	ActionBackspace
	ActionSpace
	ActionShift
)

func (a Action) String() string {
	switch a {
	case ActionBackspace:
		return "backspace"
	case ActionSpace:
		return "space"
	case ActionShift:
		return "shift"
	default:
		return "none"
	}
}

// ParseAction resolves an action name.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "backspace", "bs":
		return ActionBackspace, nil
	case "space":
		return ActionSpace, nil
	case "shift":
		return ActionShift, nil
	case "", "none":
		return ActionNone, nil
	default:
		return ActionNone, fmt.Errorf("unknown action %q", s)
	}
}

// EventKind identifies what happened on a tick.
type EventKind int

// Event kinds.
const (
	EventStarted EventKind = iota
	EventCategoryResolved
	EventKeyStarted
	EventKeyResolved
	EventAborted
	EventCancelled
	EventAux
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventCategoryResolved:
		return "category"
	case EventKeyStarted:
		return "key-started"
	case EventKeyResolved:
		return "key"
	case EventAborted:
		return "aborted"
	case EventCancelled:
		return "cancelled"
	case EventAux:
		return "aux"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is emitted by Decoder.Step. Phase is the phase after the event.
type Event struct {
	Kind         EventKind
	At           time.Time
	Phase        Phase
	Category     direction.Direction
	Key          direction.Direction
	Layer        int
	Action       Action
	Finger       hand.Finger
	Displacement float64
	Reason       string
}

// Abort and cancel reasons.
const (
	ReasonBelowThreshold  = "below threshold"
	ReasonNoDirection     = "no direction"
	ReasonTimeout         = "timeout"
	ReasonHandLost        = "hand lost"
	ReasonCategoryRelease = "category released"
	ReasonCategoryRepeat  = "category pressed again"
)

// Observer receives every event emitted by a decoder.
type Observer func(Event)
