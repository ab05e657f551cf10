package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sherreria/DualModeEeeSimulator/sim/internal/testutil"
)

// recordingHandler captures dispatched events in order.
type recordingHandler struct {
	events []Event
}

func (h *recordingHandler) HandleFrameArrival(e FrameArrivalEvent)           { h.events = append(h.events, e) }
func (h *recordingHandler) HandleFrameDrop(e FrameDropEvent)                 { h.events = append(h.events, e) }
func (h *recordingHandler) HandleFrameTransmission(e FrameTransmissionEvent) { h.events = append(h.events, e) }
func (h *recordingHandler) HandleStateTransition(e StateTransitionEvent)     { h.events = append(h.events, e) }

func (h *recordingHandler) times() []int64 {
	out := make([]int64, len(h.events))
	for i, e := range h.events {
		out[i] = e.Timestamp()
	}
	return out
}

func TestEventScheduler_DispatchesInTimeOrder(t *testing.T) {
	// GIVEN events inserted out of order
	s := NewEventScheduler(1000)
	for i, at := range []int64{500, 100, 900, 300, 100, 700} {
		require.True(t, s.Insert(FrameDropEvent{Time: at, FrameID: int64(i)}))
	}

	// WHEN the loop runs
	h := &recordingHandler{}
	n := s.Run(h)

	// THEN all events are dispatched with non-decreasing times
	assert.Equal(t, 6, n)
	testutil.AssertNonDecreasing(t, "dispatch times", h.times())
	assert.Equal(t, int64(900), s.Now())
	assert.Equal(t, 0, s.Len())
}

func TestEventScheduler_EqualTimesReverseInsertionOrder(t *testing.T) {
	// GIVEN three events at the same instant inserted a, b, c
	s := NewEventScheduler(1000)
	s.Insert(FrameDropEvent{Time: 50, FrameID: 1})
	s.Insert(FrameDropEvent{Time: 50, FrameID: 2})
	s.Insert(FrameDropEvent{Time: 50, FrameID: 3})
	s.Insert(FrameDropEvent{Time: 10, FrameID: 0})

	// WHEN dispatched
	h := &recordingHandler{}
	s.Run(h)

	// THEN the earlier event comes first and equal-time events come last-in first-out
	var ids []int64
	for _, e := range h.events {
		ids = append(ids, e.(FrameDropEvent).FrameID)
	}
	assert.Equal(t, []int64{0, 3, 2, 1}, ids)
}

func TestEventScheduler_InsertBeyondHorizonIsSilentNoOp(t *testing.T) {
	s := NewEventScheduler(1000)

	assert.True(t, s.Insert(StateTransitionEvent{Time: 1000, Target: FastWake}), "horizon itself is accepted")
	assert.False(t, s.Insert(StateTransitionEvent{Time: 1001, Target: FastWake}))
	assert.False(t, s.Insert(FrameArrivalEvent{Time: BeyondHorizon, Frame: Frame{ID: 1}}))
	assert.Equal(t, 1, s.Len())
}

func TestEventScheduler_RejectsDuplicates(t *testing.T) {
	s := NewEventScheduler(1000)

	assert.True(t, s.Insert(StateTransitionEvent{Time: 10, Target: TransitionToActiveFromFast}))
	assert.False(t, s.Insert(StateTransitionEvent{Time: 10, Target: TransitionToActiveFromFast}))
	// Same time, different discriminator or kind: distinct events.
	assert.True(t, s.Insert(StateTransitionEvent{Time: 10, Target: TransitionToActiveFromDeep}))
	assert.True(t, s.Insert(FrameTransmissionEvent{Time: 10, FrameID: int64(TransitionToActiveFromFast)}))
	assert.Equal(t, 3, s.Len())
}

func TestEventScheduler_InsertInPastPanics(t *testing.T) {
	// GIVEN a scheduler whose clock advanced to 500
	s := NewEventScheduler(1000)
	s.Insert(FrameDropEvent{Time: 500, FrameID: 1})
	s.Run(&recordingHandler{})

	// WHEN inserting an event at 499 THEN it panics
	assert.Panics(t, func() {
		s.Insert(FrameDropEvent{Time: 499, FrameID: 2})
	})
	// AND inserting at the current time is fine
	assert.True(t, s.Insert(FrameDropEvent{Time: 500, FrameID: 2}))
}

func TestEventScheduler_CancelRemovesAtMostOne(t *testing.T) {
	s := NewEventScheduler(1000)
	s.Insert(StateTransitionEvent{Time: 100, Target: TransitionToDeep})
	s.Insert(StateTransitionEvent{Time: 200, Target: TransitionToDeep})
	s.Insert(StateTransitionEvent{Time: 150, Target: FastWake})
	s.Insert(FrameTransmissionEvent{Time: 120, FrameID: int64(TransitionToDeep)})

	assert.True(t, s.Cancel(TransitionToDeep))
	assert.Equal(t, 3, s.Len())

	// The earliest match went first.
	ev, ok := s.Next(false)
	require.True(t, ok)
	assert.Equal(t, FrameTransmissionEvent{Time: 120, FrameID: int64(TransitionToDeep)}, ev)

	assert.True(t, s.Cancel(TransitionToDeep))
	assert.False(t, s.Cancel(TransitionToDeep), "no match left")
	assert.False(t, s.Cancel(DeepSleep))
	assert.Equal(t, 2, s.Len())
}

func TestEventScheduler_NextWithoutRemove(t *testing.T) {
	s := NewEventScheduler(1000)
	_, ok := s.Next(true)
	assert.False(t, ok)

	s.Insert(FrameDropEvent{Time: 7, FrameID: 1})
	ev, ok := s.Next(false)
	require.True(t, ok)
	assert.Equal(t, int64(7), ev.Timestamp())
	assert.Equal(t, 1, s.Len())

	_, ok = s.Next(true)
	require.True(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestEventScheduler_DispatchRoutesByKind(t *testing.T) {
	s := NewEventScheduler(1000)
	h := &recordingHandler{}
	evs := []Event{
		FrameArrivalEvent{Time: 1, Frame: Frame{ID: 1, Size: 64, Arrival: 1}},
		FrameDropEvent{Time: 2, FrameID: 1},
		FrameTransmissionEvent{Time: 3, FrameID: 1},
		StateTransitionEvent{Time: 4, Target: Active},
	}
	for _, ev := range evs {
		s.Dispatch(ev, h)
	}
	assert.Equal(t, evs, h.events)
	assert.Equal(t, int64(4), s.Now())

	assert.Panics(t, func() { s.Dispatch(FrameDropEvent{Time: 3, FrameID: 9}, h) }, "clock must not move back")
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "FrameArrivalEvent", KindFrameArrival.String())
	assert.Equal(t, "FrameDropEvent", KindFrameDrop.String())
	assert.Equal(t, "FrameTransmissionEvent", KindFrameTransmission.String())
	assert.Equal(t, "StateTransitionEvent", KindStateTransition.String())
}
