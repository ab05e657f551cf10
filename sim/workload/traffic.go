package workload

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sherreria/DualModeEeeSimulator/sim"
)

// arrivalClock accumulates inter-arrival times in seconds and converts the
// running total to ticks.
type arrivalClock struct {
	seconds float64
}

func (c *arrivalClock) advance(interarrival float64) int64 {
	c.seconds += interarrival
	t := c.seconds * sim.PicosPerSecond
	if math.IsNaN(t) || t >= math.MaxInt64 {
		return sim.BeyondHorizon
	}
	return int64(t)
}

// frameRate converts a bit rate into frames per second for the given mean frame size.
func frameRate(bitRate float64, meanFrameSize int) float64 {
	return bitRate / (8 * float64(meanFrameSize))
}

// DeterministicTraffic emits frames at a constant rate.
type DeterministicTraffic struct {
	clock  arrivalClock
	period float64 // seconds
}

// NewDeterministicTraffic returns a generator with inter-arrival 1/frameRate.
func NewDeterministicTraffic(bitRate float64, meanFrameSize int) *DeterministicTraffic {
	return &DeterministicTraffic{period: 1 / frameRate(bitRate, meanFrameSize)}
}

func (g *DeterministicTraffic) NextArrival() int64 {
	return g.clock.advance(g.period)
}

// PoissonTraffic emits frames with exponentially distributed inter-arrival times.
type PoissonTraffic struct {
	clock arrivalClock
	dist  distuv.Exponential
	rng   *rand.Rand
}

// NewPoissonTraffic returns a Poisson generator with mean inter-arrival 1/frameRate.
func NewPoissonTraffic(bitRate float64, meanFrameSize int, rng *rand.Rand) *PoissonTraffic {
	return &PoissonTraffic{
		dist: distuv.Exponential{Rate: frameRate(bitRate, meanFrameSize)},
		rng:  rng,
	}
}

func (g *PoissonTraffic) NextArrival() int64 {
	// Inverse CDF of a uniform variate.
	return g.clock.advance(g.dist.Quantile(g.rng.Float64()))
}

// ParetoTraffic emits frames with Pareto distributed inter-arrival times whose
// mean equals 1/frameRate.
type ParetoTraffic struct {
	clock arrivalClock
	alpha float64
	xm    float64 // seconds
	rng   *rand.Rand
}

// NewParetoTraffic returns a Pareto generator with shape alpha (> 1) and
// minimum xm = (alpha-1)/(alpha·frameRate).
func NewParetoTraffic(bitRate float64, meanFrameSize int, alpha float64, rng *rand.Rand) *ParetoTraffic {
	return &ParetoTraffic{
		alpha: alpha,
		xm:    (alpha - 1) / (alpha * frameRate(bitRate, meanFrameSize)),
		rng:   rng,
	}
}

func (g *ParetoTraffic) NextArrival() int64 {
	// Inverse CDF: xm / U^(1/alpha)
	u := g.rng.Float64()
	if u == 0 {
		u = math.SmallestNonzeroFloat64 // prevent division by zero
	}
	return g.clock.advance(g.xm / math.Pow(u, 1/g.alpha))
}

// TraceTraffic replays recorded inter-arrival times (seconds).
type TraceTraffic struct {
	clock         arrivalClock
	interarrivals []float64
	next          int
}

// NewTraceTraffic returns a generator replaying interarrivals once.
func NewTraceTraffic(interarrivals []float64) *TraceTraffic {
	return &TraceTraffic{interarrivals: interarrivals}
}

// NextArrival returns sim.BeyondHorizon once the trace is exhausted.
func (g *TraceTraffic) NextArrival() int64 {
	if g.next >= len(g.interarrivals) {
		return sim.BeyondHorizon
	}
	ia := g.interarrivals[g.next]
	g.next++
	return g.clock.advance(ia)
}
