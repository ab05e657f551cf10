package sim

import (
	"fmt"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/sirupsen/logrus"
)

// EventScheduler holds the pending events in time order, the simulation clock
// and the horizon.
//
// Pending events are kept in a list scanned linearly on insert. An incoming event is
// placed before the first pending event whose time is not earlier than its own, so
// events sharing a timestamp are dispatched in reverse insertion order. The adaptive
// coalescing modes depend on that order; do not replace the list with a heap.
//
// Thread-safety: NOT thread-safe. The dispatch loop is the only driver.
type EventScheduler struct {
	pending *arraylist.List
	now     int64
	horizon int64
}

// NewEventScheduler creates an empty scheduler whose clock starts at 0.
func NewEventScheduler(horizon int64) *EventScheduler {
	return &EventScheduler{
		pending: arraylist.New(),
		horizon: horizon,
	}
}

// Now returns the time of the last dispatched event.
func (s *EventScheduler) Now() int64 { return s.now }

// Horizon returns the instant after which events are discarded.
func (s *EventScheduler) Horizon() int64 { return s.horizon }

// Len returns the number of pending events.
func (s *EventScheduler) Len() int { return s.pending.Size() }

func (s *EventScheduler) at(i int) Event {
	v, _ := s.pending.Get(i)
	return v.(Event)
}

// Insert schedules ev. It returns false, leaving the list unchanged, when ev lies
// beyond the horizon or an identical event is already pending. Scheduling in the
// past is a logic error and panics.
func (s *EventScheduler) Insert(ev Event) bool {
	t := ev.Timestamp()
	if t < s.now {
		panic(fmt.Sprintf("EventScheduler.Insert: %s at %d ps precedes current time %d ps", ev.Kind(), t, s.now))
	}
	if t > s.horizon || s.contains(ev.key()) {
		return false
	}
	n := s.pending.Size()
	i := 0
	for i < n && s.at(i).Timestamp() < t {
		i++
	}
	s.pending.Insert(i, ev)
	return true
}

func (s *EventScheduler) contains(k eventKey) bool {
	for i := 0; i < s.pending.Size(); i++ {
		if s.at(i).key() == k {
			return true
		}
	}
	return false
}

// Next returns the earliest pending event, removing it when remove is true.
// ok is false when nothing is pending.
func (s *EventScheduler) Next(remove bool) (ev Event, ok bool) {
	if s.pending.Empty() {
		return nil, false
	}
	ev = s.at(0)
	if remove {
		s.pending.Remove(0)
	}
	return ev, true
}

// Dispatch advances the clock to ev and invokes the handler bound to its type.
func (s *EventScheduler) Dispatch(ev Event, h Handler) {
	if ev.Timestamp() < s.now {
		panic(fmt.Sprintf("EventScheduler.Dispatch: %s at %d ps would move the clock back from %d ps", ev.Kind(), ev.Timestamp(), s.now))
	}
	s.now = ev.Timestamp()
	logrus.Tracef("[%d ps] dispatching %s", s.now, ev.Kind())
	switch e := ev.(type) {
	case FrameArrivalEvent:
		h.HandleFrameArrival(e)
	case FrameDropEvent:
		h.HandleFrameDrop(e)
	case FrameTransmissionEvent:
		h.HandleFrameTransmission(e)
	case StateTransitionEvent:
		h.HandleStateTransition(e)
	default:
		panic(fmt.Sprintf("EventScheduler.Dispatch: unknown event type %T", ev))
	}
}

// Cancel removes the first pending StateTransitionEvent whose target is state.
// It reports whether an event was removed.
func (s *EventScheduler) Cancel(state LinkState) bool {
	for i := 0; i < s.pending.Size(); i++ {
		if st, ok := s.at(i).(StateTransitionEvent); ok && st.Target == state {
			s.pending.Remove(i)
			return true
		}
	}
	return false
}

// Run dispatches pending events until none remain and returns how many were handled.
func (s *EventScheduler) Run(h Handler) int {
	n := 0
	for {
		ev, ok := s.Next(true)
		if !ok {
			return n
		}
		s.Dispatch(ev, h)
		n++
	}
}
