package sim

import "math"

// BeyondHorizon is returned by a TrafficGenerator that has no further arrivals.
// The scheduler silently discards events at this instant.
const BeyondHorizon int64 = math.MaxInt64

// SizeExhausted is returned by a FrameSizeGenerator that has no further sizes.
const SizeExhausted = 0

// TrafficGenerator produces successive absolute frame arrival instants (ticks).
// Implementations live in sim/workload. The sequence is non-decreasing.
type TrafficGenerator interface {
	NextArrival() int64
}

// FrameSizeGenerator produces successive frame sizes in bytes.
type FrameSizeGenerator interface {
	NextFrameSize() int
}
