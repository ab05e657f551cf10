package sim

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLink(t *testing.T, cfg Config) (*LinkModel, *EventScheduler) {
	t.Helper()
	require.NoError(t, cfg.Validate())
	sched := NewEventScheduler(cfg.Horizon)
	return NewLinkModel(&cfg, sched), sched
}

func TestNewLinkModel_InitialSleepDirection(t *testing.T) {
	tests := []struct {
		mode OperationMode
		want LinkState
	}{
		{ModeDual, TransitionToFast},
		{ModeFast, TransitionToFast},
		{ModeMostowfi, TransitionToFast},
		{ModeDeep, TransitionToDeep},
		{ModeDeepTimeDyn, TransitionToDeep},
		{ModeDualDyn, TransitionToDeep}, // 32 us target is past the crossover
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := validConfig()
			cfg.Coalescing.Mode = tt.mode
			l, _ := newTestLink(t, cfg)
			assert.Equal(t, tt.want, l.State())
		})
	}
}

func TestNewLinkModel_InitialDelayBound(t *testing.T) {
	cfg := validConfig()
	cfg.Coalescing.Mode = ModeFastTimeDyn
	l, _ := newTestLink(t, cfg)
	assert.Equal(t, cfg.Coalescing.MaxDelay, l.DelayBound())

	// Without a configured max delay the time_dyn modes start from twice the target.
	cfg.Coalescing.MaxDelay = 0
	l, _ = newTestLink(t, cfg)
	assert.Equal(t, 2*cfg.Coalescing.TargetDelay, l.DelayBound())
}

func TestLinkModel_WakeIgnoredWhileActiveOrWaking(t *testing.T) {
	for _, st := range []LinkState{Active, TransitionToActiveFromFast, TransitionToActiveFromDeep} {
		t.Run(st.String(), func(t *testing.T) {
			// GIVEN a link that is already awake or waking
			l, sched := newTestLink(t, validConfig())
			l.state = st

			// WHEN a wake request arrives
			l.HandleStateTransition(StateTransitionEvent{Time: 0, Target: TransitionToActiveFromDeep})

			// THEN nothing changes
			assert.Equal(t, st, l.State())
			assert.Equal(t, 0, sched.Len())
		})
	}
}

func TestLinkModel_WakeTargetFollowsCurrentState(t *testing.T) {
	// GIVEN a link in FAST_WAKE with the dual mode deep timeout pending
	l, sched := newTestLink(t, validConfig())
	l.state = FastWake
	require.True(t, sched.Insert(StateTransitionEvent{Time: 4_400_000, Target: TransitionToDeep}))

	// WHEN a deep wake request is handled
	l.HandleStateTransition(StateTransitionEvent{Time: 1_000_000, Target: TransitionToActiveFromDeep})

	// THEN the link takes the fast wake path, drops the timeout and schedules ACTIVE
	assert.Equal(t, TransitionToActiveFromFast, l.State())
	require.Equal(t, 1, sched.Len())
	ev, _ := sched.Next(false)
	assert.Equal(t, StateTransitionEvent{Time: 1_340_000, Target: Active}, ev)
}

func TestLinkModel_ActiveWithEmptyQueuePanics(t *testing.T) {
	l, _ := newTestLink(t, validConfig())
	assert.Panics(t, func() {
		l.HandleStateTransition(StateTransitionEvent{Time: 0, Target: Active})
	})
}

func TestLinkModel_TransmissionOfNonHeadFramePanics(t *testing.T) {
	l, _ := newTestLink(t, validConfig())
	assert.Panics(t, func() {
		l.HandleFrameTransmission(FrameTransmissionEvent{Time: 10, FrameID: 3})
	})

	l.queue.Enqueue(Frame{ID: 1, Size: 1500})
	assert.Panics(t, func() {
		l.HandleFrameTransmission(FrameTransmissionEvent{Time: 10_000_000, FrameID: 2})
	})
}

func TestLinkModel_BackstopTarget(t *testing.T) {
	tests := []struct {
		name string
		mode OperationMode
		want StateTransitionEvent
	}{
		// arrival + 128 us - fast wake time
		{"fast mode wakes from fast", ModeFast, StateTransitionEvent{Time: 127_660_000, Target: TransitionToActiveFromFast}},
		// dual mode may fall to deep before the bound: budget the deep wake time
		{"dual mode budgets deep wake", ModeDual, StateTransitionEvent{Time: 122_500_000, Target: TransitionToActiveFromDeep}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a link in FAST_WAKE that needs 3 frames to wake
			cfg := validConfig()
			cfg.Coalescing.Mode = tt.mode
			cfg.Coalescing.FastToActiveQth = 3
			cfg.Coalescing.DeepToActiveQth = 3
			l, sched := newTestLink(t, cfg)
			l.state = FastWake

			// WHEN the first frame arrives
			l.HandleFrameArrival(FrameArrivalEvent{Time: 0, Frame: Frame{ID: 0, Size: 1500, Arrival: 0}})

			// THEN the next arrival and the backstop wake are pending
			assert.Equal(t, 1, l.QueueLen())
			require.Equal(t, 2, sched.Len())
			first, _ := sched.Next(true)
			assert.Equal(t, KindFrameArrival, first.Kind())
			second, _ := sched.Next(true)
			assert.Equal(t, tt.want, second)
		})
	}
}

func TestLinkModel_FullQueueSchedulesDrop(t *testing.T) {
	// GIVEN a one-frame queue holding a frame
	cfg := validConfig()
	cfg.Link.MaxQueueSize = 1
	cfg.Coalescing.FastToActiveQth = 2
	cfg.Coalescing.DeepToActiveQth = 2
	cfg.Coalescing.MaxDelay = 0
	l, sched := newTestLink(t, cfg)
	l.queue.Enqueue(Frame{ID: 7, Size: 1500})

	// WHEN another frame arrives
	l.HandleFrameArrival(FrameArrivalEvent{Time: 0, Frame: Frame{ID: 8, Size: 1500}})

	// THEN it is counted as received and a drop is scheduled at the arrival instant
	assert.Equal(t, int64(1), l.Statistics().FramesReceived)
	assert.Equal(t, 1, l.QueueLen())
	ev, ok := sched.Next(true)
	require.True(t, ok)
	assert.Equal(t, FrameDropEvent{Time: 0, FrameID: 8}, ev)

	l.HandleFrameDrop(ev.(FrameDropEvent))
	assert.Equal(t, int64(1), l.Statistics().FramesDropped)
}

func TestLinkModel_DrainCreditsActivePeriodBeforeAdapting(t *testing.T) {
	// GIVEN a fast_dyn link that woke at t=0 with threshold 1 for one 1500 B frame
	cfg := validConfig()
	cfg.Coalescing.Mode = ModeFastDyn
	l, sched := newTestLink(t, cfg)
	l.state = Active
	l.queue.Enqueue(Frame{ID: 0, Size: 1500, Arrival: 0})
	l.cycleArrivals = 1

	// WHEN the frame finishes at 1.2 us and the queue drains
	l.HandleFrameTransmission(FrameTransmissionEvent{Time: 1_200_000, FrameID: 0})

	// THEN the ACTIVE period is charged with the threshold it ran under
	st := l.Statistics()
	assert.Equal(t, int64(1_200_000), st.TimeInState[Active])
	assert.Equal(t, 1_200_000.0, st.AdaptiveIntegral)
	// AND the threshold for the next cycle is floor((64 - 0.34) us / 1.2 us + 1)
	fast, _ := l.Thresholds()
	assert.Equal(t, 54, fast)

	// WHEN the sleep transition is dispatched at the same instant
	ev, ok := sched.Next(true)
	require.True(t, ok)
	assert.Equal(t, StateTransitionEvent{Time: 1_200_000, Target: TransitionToFast}, ev)
	l.HandleStateTransition(ev.(StateTransitionEvent))

	// THEN nothing more is credited to ACTIVE or to the integral
	assert.Equal(t, int64(1_200_000), st.TimeInState[Active])
	assert.Equal(t, 1_200_000.0, st.AdaptiveIntegral)

	// AND the next interval is charged with the adapted threshold
	l.credit(2_200_000)
	assert.Equal(t, 1_200_000.0+54*1_000_000.0, st.AdaptiveIntegral)
}

func TestLinkModel_IgnoredWakeIsLogged(t *testing.T) {
	// GIVEN a verbose link that is already ACTIVE with one frame queued
	var log bytes.Buffer
	cfg := validConfig()
	cfg.Verbose = true
	cfg.EventLog = &log
	l, _ := newTestLink(t, cfg)
	l.state = Active
	l.queue.Enqueue(Frame{ID: 0, Size: 1500})

	// WHEN a stale wake request is dispatched
	l.HandleStateTransition(StateTransitionEvent{Time: 2_000_000, Target: TransitionToActiveFromFast})

	// THEN it still produces its line
	assert.Equal(t, "2.000 StateTransitionEvent TRANSITION_TO_ACTIVE_FROM_FAST ignored 1\n", log.String())
	assert.Equal(t, Active, l.State())
}

func TestLinkModel_TransmissionTimeSaturatesOnSlowLinks(t *testing.T) {
	// GIVEN a link so slow that one frame takes longer than the tick range
	cfg := validConfig()
	cfg.Link.Capacity = 1e-9
	l, sched := newTestLink(t, cfg)
	assert.Equal(t, int64(math.MaxInt64), l.transmissionTime(1500))

	// WHEN a transmission is scheduled
	l.queue.Enqueue(Frame{ID: 0, Size: 1500})
	assert.NotPanics(t, func() { l.scheduleTransmission(5) })

	// THEN the completion falls beyond the horizon and is never queued
	assert.Equal(t, 0, sched.Len())
}
