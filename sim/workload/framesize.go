package workload

import (
	"math/rand"

	"github.com/sherreria/DualModeEeeSimulator/sim"
)

// Sizes of the bimodal frame mix (bytes).
const (
	ShortFrameSize = 100
	LongFrameSize  = 1500
)

// DeterministicFrameSize always returns the same size.
type DeterministicFrameSize struct {
	size int
}

func NewDeterministicFrameSize(size int) *DeterministicFrameSize {
	return &DeterministicFrameSize{size: size}
}

func (g *DeterministicFrameSize) NextFrameSize() int { return g.size }

// UniformFrameSize draws integer sizes uniformly over [mean-range/2, mean+range/2].
type UniformFrameSize struct {
	min, max int
	rng      *rand.Rand
}

func NewUniformFrameSize(mean, sizeRange int, rng *rand.Rand) *UniformFrameSize {
	return &UniformFrameSize{min: mean - sizeRange/2, max: mean + sizeRange/2, rng: rng}
}

func (g *UniformFrameSize) NextFrameSize() int {
	return g.min + g.rng.Intn(g.max-g.min+1)
}

// BimodalFrameSize mixes short and long frames so that the mean size is preserved.
type BimodalFrameSize struct {
	longRatio float64
	rng       *rand.Rand
}

// NewBimodalFrameSize returns a generator whose long frame ratio is
// (mean-ShortFrameSize)/(LongFrameSize-ShortFrameSize).
func NewBimodalFrameSize(mean int, rng *rand.Rand) *BimodalFrameSize {
	return &BimodalFrameSize{
		longRatio: float64(mean-ShortFrameSize) / float64(LongFrameSize-ShortFrameSize),
		rng:       rng,
	}
}

func (g *BimodalFrameSize) NextFrameSize() int {
	if g.rng.Float64() < g.longRatio {
		return LongFrameSize
	}
	return ShortFrameSize
}

// TraceFrameSize replays recorded frame sizes.
type TraceFrameSize struct {
	sizes []int
	next  int
}

func NewTraceFrameSize(sizes []int) *TraceFrameSize {
	return &TraceFrameSize{sizes: sizes}
}

// NextFrameSize returns sim.SizeExhausted once the trace is exhausted.
func (g *TraceFrameSize) NextFrameSize() int {
	if g.next >= len(g.sizes) {
		return sim.SizeExhausted
	}
	s := g.sizes[g.next]
	g.next++
	return s
}
