// Tracks link-wide statistics such as frame counters, frame delays and the
// time spent in every power state.

package sim

import (
	"fmt"
	"io"
)

// Statistics aggregates the counters of a link for final reporting.
// All durations are in ticks.
type Statistics struct {
	Mode    OperationMode
	Horizon int64 // simulated length; denominator of every share

	FramesReceived int64
	FramesSent     int64
	FramesDropped  int64
	BytesReceived  int64
	BytesSent      int64

	DelaySum int64 // sum of per-frame queueing delays
	MaxDelay int64 // largest per-frame queueing delay

	CoalescingCycles int64 // number of times ACTIVE was entered with frames queued

	TimeInState [numLinkStates]int64

	// AdaptiveIntegral is the time integral of the derived threshold (frames) or,
	// for *_time_dyn modes, of the derived delay bound (ticks).
	AdaptiveIntegral float64

	QueueAtEnd int // frames still queued at the horizon

	power PowerConfig
}

func newStatistics(mode OperationMode, horizon int64, power PowerConfig) *Statistics {
	return &Statistics{Mode: mode, Horizon: horizon, power: power}
}

// recordDelivery accounts one completed transmission.
func (s *Statistics) recordDelivery(size int, delay int64) {
	s.FramesSent++
	s.BytesSent += int64(size)
	s.DelaySum += delay
	if delay > s.MaxDelay {
		s.MaxDelay = delay
	}
}

// AverageDelay returns the mean per-frame delay in ticks (0 if nothing was sent).
func (s *Statistics) AverageDelay() float64 {
	if s.FramesSent == 0 {
		return 0
	}
	return float64(s.DelaySum) / float64(s.FramesSent)
}

// StateShare returns the fraction of the simulated time spent in st.
func (s *Statistics) StateShare(st LinkState) float64 {
	if s.Horizon <= 0 {
		return 0
	}
	return float64(s.TimeInState[st]) / float64(s.Horizon)
}

// PowerConsumption returns the average power draw relative to an always-active link.
// ACTIVE and every transition state count at full power; the two sleep states
// count at their configured coefficients.
func (s *Statistics) PowerConsumption() float64 {
	if s.Horizon <= 0 {
		return 0
	}
	full := s.TimeInState[Active] +
		s.TimeInState[TransitionToFast] + s.TimeInState[TransitionToDeep] +
		s.TimeInState[TransitionToActiveFromFast] + s.TimeInState[TransitionToActiveFromDeep]
	energy := float64(full) +
		s.power.FastWakeConsumption*float64(s.TimeInState[FastWake]) +
		s.power.DeepSleepConsumption*float64(s.TimeInState[DeepSleep])
	return energy / float64(s.Horizon)
}

// AverageCoalescingCycle returns the mean time between two wake-ups in ticks
// (0 if the link never woke up).
func (s *Statistics) AverageCoalescingCycle() float64 {
	if s.CoalescingCycles == 0 {
		return 0
	}
	return float64(s.Horizon) / float64(s.CoalescingCycles)
}

// AverageAdaptiveValue returns the time-weighted mean of the derived threshold or
// delay bound. Only meaningful for adaptive modes.
func (s *Statistics) AverageAdaptiveValue() float64 {
	if s.Horizon <= 0 {
		return 0
	}
	return s.AdaptiveIntegral / float64(s.Horizon)
}

// Print writes the end-of-run report. Times are in microseconds.
func (s *Statistics) Print(w io.Writer) {
	fmt.Fprintf(w, "Frames: received %d sent %d dropped %d\n", s.FramesReceived, s.FramesSent, s.FramesDropped)
	if s.FramesSent > 0 {
		fmt.Fprintf(w, "Frame delay: average %.3f max %.3f\n", s.AverageDelay()/1e6, float64(s.MaxDelay)/1e6)
	}
	for _, st := range AllLinkStates {
		fmt.Fprintf(w, "Time in state %s: %.3f %.2f %%\n", st, float64(s.TimeInState[st])/1e6, 100*s.StateShare(st))
	}
	fmt.Fprintf(w, "Power consumption: %.4f\n", s.PowerConsumption())
	if s.CoalescingCycles > 0 {
		fmt.Fprintf(w, "Average coalescing cycle: %.4f\n", s.AverageCoalescingCycle()/1e6)
	}
	switch {
	case s.Mode.AdaptsDelayBound():
		fmt.Fprintf(w, "Average max delay: %.3f\n", s.AverageAdaptiveValue()/1e6)
	case s.Mode == ModeMostowfi:
		fmt.Fprintf(w, "Average wake queue: %.4f\n", s.AverageAdaptiveValue())
	case s.Mode.IsAdaptive():
		fmt.Fprintf(w, "Average queue threshold: %.4f\n", s.AverageAdaptiveValue())
	}
}
