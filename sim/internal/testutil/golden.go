// Package testutil provides shared assertion helpers for the simulator test packages.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal fails the test when want and got differ by more than relTol
// relative to the larger magnitude.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertNonDecreasing fails the test when values ever decrease.
func AssertNonDecreasing(t *testing.T, name string, values []int64) {
	t.Helper()
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			t.Errorf("%s: value %d at index %d is below previous value %d", name, values[i], i, values[i-1])
			return
		}
	}
}
