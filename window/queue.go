package window

import "github.com/bnema/wlwindow/event"

// PendingKind tags a Pending event.
type PendingKind int

const (
	PendingFocusLost PendingKind = iota
	PendingKey
	PendingMotion
	PendingButton
	PendingAxis
	PendingFilesDropped
)

func (k PendingKind) String() string {
	switch k {
	case PendingFocusLost:
		return "focus_lost"
	case PendingKey:
		return "key"
	case PendingMotion:
		return "motion"
	case PendingButton:
		return "button"
	case PendingAxis:
		return "axis"
	case PendingFilesDropped:
		return "files_dropped"
	default:
		return "unknown"
	}
}

// KeyState is the transition of a key event.
type KeyState int

const (
	KeyReleased KeyState = iota
	KeyPressed
	KeyRepeat
)

// Down reports whether the key is held after the transition.
func (s KeyState) Down() bool {
	return s != KeyReleased
}

// Pending is a normalized input event waiting for the handler. Only the
// fields of its Kind are set.
type Pending struct {
	Kind PendingKind

	// PendingKey: evdev scancode.
	Key      uint32
	KeyState KeyState

	// PendingMotion: position. PendingAxis: unit scroll step.
	X, Y float32

	// PendingButton
	Button  event.MouseButton
	Pressed bool

	// PendingFilesDropped
	Paths []string
}

// Queue is the FIFO between listeners and the handler.
type Queue struct {
	events []Pending
}

// Push appends p.
func (q *Queue) Push(p Pending) {
	q.events = append(q.events, p)
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Drain hands every queued event to fn in order and leaves the queue
// empty. Events pushed by fn are delivered in the same drain.
func (q *Queue) Drain(fn func(p Pending)) {
	for i := 0; i < len(q.events); i++ {
		fn(q.events[i])
	}
	clear(q.events)
	q.events = q.events[:0]
}
