package workload

import (
	"math"
	"math/rand"
	"testing"

	"github.com/sherreria/DualModeEeeSimulator/sim"
)

func TestDeterministicFrameSize(t *testing.T) {
	g := NewDeterministicFrameSize(1500)
	for i := 0; i < 3; i++ {
		if got := g.NextFrameSize(); got != 1500 {
			t.Errorf("size = %d, want 1500", got)
		}
	}
}

func TestUniformFrameSize_BoundsAndMean(t *testing.T) {
	// GIVEN sizes uniform over [900, 1100]
	g := NewUniformFrameSize(1000, 200, rand.New(rand.NewSource(42)))

	// WHEN 10000 sizes are drawn
	n := 10000
	sum, seenMin, seenMax := 0, math.MaxInt, 0
	for i := 0; i < n; i++ {
		s := g.NextFrameSize()
		if s < 900 || s > 1100 {
			t.Fatalf("size %d outside [900, 1100]", s)
		}
		sum += s
		seenMin, seenMax = min(seenMin, s), max(seenMax, s)
	}

	// THEN the mean is the configured size and both ends are reachable
	if mean := float64(sum) / float64(n); math.Abs(mean-1000) > 5 {
		t.Errorf("mean size = %.1f, want ≈ 1000", mean)
	}
	if seenMin != 900 || seenMax != 1100 {
		t.Errorf("observed range [%d, %d], want [900, 1100]", seenMin, seenMax)
	}
}

func TestBimodalFrameSize_PreservesMean(t *testing.T) {
	// GIVEN a bimodal mix with mean 800 bytes: half the frames are long
	g := NewBimodalFrameSize(800, rand.New(rand.NewSource(42)))

	// WHEN 20000 sizes are drawn
	n := 20000
	sum := 0
	for i := 0; i < n; i++ {
		s := g.NextFrameSize()
		if s != ShortFrameSize && s != LongFrameSize {
			t.Fatalf("size %d is neither %d nor %d", s, ShortFrameSize, LongFrameSize)
		}
		sum += s
	}

	// THEN the mean is within 3% of 800
	if mean := float64(sum) / float64(n); math.Abs(mean-800)/800 > 0.03 {
		t.Errorf("mean size = %.1f, want ≈ 800", mean)
	}
}

func TestBimodalFrameSize_Extremes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	short := NewBimodalFrameSize(ShortFrameSize, rng)
	long := NewBimodalFrameSize(LongFrameSize, rng)
	for i := 0; i < 100; i++ {
		if s := short.NextFrameSize(); s != ShortFrameSize {
			t.Fatalf("mean %d produced %d", ShortFrameSize, s)
		}
		if s := long.NextFrameSize(); s != LongFrameSize {
			t.Fatalf("mean %d produced %d", LongFrameSize, s)
		}
	}
}

func TestTraceFrameSize_ReplaysThenExhausts(t *testing.T) {
	g := NewTraceFrameSize([]int{64, 1500})
	for i, want := range []int{64, 1500, sim.SizeExhausted, sim.SizeExhausted} {
		if got := g.NextFrameSize(); got != want {
			t.Errorf("size %d = %d, want %d", i, got, want)
		}
	}
}
