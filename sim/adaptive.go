package sim

import "math"

// maxDerivedQth bounds derived queue thresholds so the float to int conversion never overflows.
const maxDerivedQth = math.MaxInt32

// cycleSample holds the counters accumulated between two consecutive queue drains.
type cycleSample struct {
	elapsed  int64 // ticks since the previous drain
	arrivals int64 // frames received in the cycle
	busy     int64 // ticks spent transmitting in the cycle
}

// arrivalRate returns the empirical arrival rate in frames per tick.
func (c cycleSample) arrivalRate() float64 {
	if c.elapsed <= 0 {
		return 0
	}
	return float64(c.arrivals) / float64(c.elapsed)
}

// utilization returns the fraction of the cycle spent transmitting, in [0, 1].
func (c cycleSample) utilization() float64 {
	if c.elapsed <= 0 {
		return 0
	}
	return math.Min(1, float64(c.busy)/float64(c.elapsed))
}

// dynThreshold is the rate-adaptive queue threshold floor((2D - T)·λ + 1).
func dynThreshold(target, toActive int64, lambda float64) int {
	return clampQth((2*float64(target) - float64(toActive)) * lambda)
}

// mulThreshold additionally shrinks the threshold with the link utilization:
// floor((2D - T)·λ/(1 + ρ) + 1).
func mulThreshold(target, toActive int64, lambda, rho float64) int {
	return clampQth((2*float64(target) - float64(toActive)) * lambda / (1 + rho))
}

func clampQth(v float64) int {
	q := math.Floor(v + 1)
	if math.IsNaN(q) || q < 1 {
		return 1
	}
	if q > maxDerivedQth {
		return maxDerivedQth
	}
	return int(q)
}

// timeDynBound is the adaptive maximum coalescing delay (2D - T)/(1 + ρ),
// never below one nanosecond.
func timeDynBound(target, toActive int64, rho float64) int64 {
	b := (2*float64(target) - float64(toActive)) / (1 + rho)
	if math.IsNaN(b) || b < float64(Nanosecond) {
		return Nanosecond
	}
	if b >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(b)
}

// crossover is the range of x = 2·D (ticks) for which deep sleep costs less
// energy per coalescing cycle than fast wake. Deep is favoured iff lo < x < hi.
//
// With x the coalescing window, each sleep mode s contributes A_s·(x - p_s)·(x - q_s),
// where A_s = 1 - consumption_s, p_s is the sleep entry plus round trip overhead and
// q_s the wake time of the other mode. Deep wins where
//
//	h(x) = A_d(x - p_d)(x - q_d) - A_f(x - p_f)(x - q_f) > 0
type crossover struct {
	lo, hi float64
}

var (
	crossoverAlways = crossover{lo: math.Inf(-1), hi: math.Inf(1)}
	crossoverNever  = crossover{lo: math.Inf(1), hi: math.Inf(-1)}
)

// coefficientEpsilon treats smaller leading coefficients as zero.
const coefficientEpsilon = 1e-12

func newCrossover(t TransitionConfig, p PowerConfig) crossover {
	tda, tfa := float64(t.DeepToActive), float64(t.FastToActive)
	taf, tfd := float64(t.ActiveToFast), float64(t.FastToDeep)

	a1, p1, q1 := 1-p.DeepSleepConsumption, 2*tda+taf+tfd, tfa
	a2, p2, q2 := 1-p.FastWakeConsumption, 2*tfa+taf, tda

	a := a1 - a2
	b := -a1*(p1+q1) + a2*(p2+q2)
	c := a1*p1*q1 - a2*p2*q2

	if math.Abs(a) < coefficientEpsilon {
		switch {
		case b > 0:
			return crossover{lo: -c / b, hi: math.Inf(1)}
		case b < 0:
			return crossover{lo: math.Inf(-1), hi: -c / b}
		case c > 0:
			return crossoverAlways
		default:
			return crossoverNever
		}
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		// h never changes sign.
		if a > 0 {
			return crossoverAlways
		}
		return crossoverNever
	}
	sq := math.Sqrt(disc)
	r1, r2 := (-b-sq)/(2*a), (-b+sq)/(2*a)
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	if a > 0 {
		// h is also positive below r1, but only windows squeezed by near-full
		// utilization reach it. Those stay on fast wake.
		return crossover{lo: r2, hi: math.Inf(1)}
	}
	return crossover{lo: r1, hi: r2}
}

// favoursDeep reports whether a coalescing delay of d ticks favours deep sleep.
func (c crossover) favoursDeep(d float64) bool {
	x := 2 * d
	return x > c.lo && x < c.hi
}

// dualDynChoosesDeep decides the sleep direction of dual_dyn for utilization rho.
// A target delay shorter than half the deep wake time always selects fast wake.
func dualDynChoosesDeep(co CoalescingConfig, t TransitionConfig, c crossover, rho float64) bool {
	if float64(co.TargetDelay) < float64(t.DeepToActive)/2 {
		return false
	}
	return c.favoursDeep(float64(co.TargetDelay) * (1 - rho))
}
