package sim

import (
	"fmt"
	"io"
	"math"
)

// PicosPerSecond is the number of simulation ticks in one second.
const PicosPerSecond = 1e12

// Nanosecond is one nanosecond in ticks.
const Nanosecond int64 = 1000

// Seconds converts a duration in seconds to ticks, truncating toward zero.
func Seconds(s float64) int64 {
	v := s * PicosPerSecond
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// LinkConfig groups the physical link parameters.
type LinkConfig struct {
	Capacity     float64 // bits per second (must be > 0)
	MaxQueueSize int     // frames; 0 = unbounded
}

// TransitionConfig groups the fixed state transition durations (ticks).
type TransitionConfig struct {
	ActiveToFast int64 // ACTIVE -> FAST_WAKE
	FastToDeep   int64 // FAST_WAKE -> DEEP_SLEEP
	FastToActive int64 // FAST_WAKE -> ACTIVE
	DeepToActive int64 // DEEP_SLEEP -> ACTIVE
}

// PowerConfig groups the power coefficients of the low-power states,
// relative to the ACTIVE power draw.
type PowerConfig struct {
	FastWakeConsumption  float64
	DeepSleepConsumption float64
}

// CoalescingConfig groups the coalescing strategy parameters.
type CoalescingConfig struct {
	Mode            OperationMode
	TargetDelay     int64 // ticks; used by adaptive modes
	MaxDelay        int64 // ticks; 0 disables the backstop wake
	FastToActiveQth int   // frames queued to leave FAST_WAKE
	DeepToActiveQth int   // frames queued to leave DEEP_SLEEP
	MaxFastWakeTime int64 // ticks spent in FAST_WAKE before the mode-specific timeout
}

// Config is the validated, immutable input of a simulation run.
// The generators are constructed and seeded by the caller.
type Config struct {
	Link        LinkConfig
	Transitions TransitionConfig
	Power       PowerConfig
	Coalescing  CoalescingConfig

	Horizon int64 // simulation length in ticks
	Seed    int64

	Traffic    TrafficGenerator
	FrameSizes FrameSizeGenerator

	// Verbose enables one line per dispatched event on EventLog (stdout when nil).
	Verbose  bool
	EventLog io.Writer
}

// DefaultTransitions returns the transition durations of a 10GBASE-T style link.
func DefaultTransitions() TransitionConfig {
	return TransitionConfig{
		ActiveToFast: Seconds(0.9e-6),
		FastToDeep:   Seconds(1e-6),
		FastToActive: Seconds(0.34e-6),
		DeepToActive: Seconds(5.5e-6),
	}
}

// DefaultPower returns the default low-power coefficients.
func DefaultPower() PowerConfig {
	return PowerConfig{FastWakeConsumption: 0.7, DeepSleepConsumption: 0.1}
}

// DefaultCoalescing returns the default coalescing parameters (dual mode).
func DefaultCoalescing() CoalescingConfig {
	return CoalescingConfig{
		Mode:            ModeDual,
		TargetDelay:     Seconds(32e-6),
		MaxDelay:        Seconds(128e-6),
		FastToActiveQth: 1,
		DeepToActiveQth: 1,
		MaxFastWakeTime: Seconds(3.5e-6),
	}
}

// toActive returns the wake-up duration for the given wake transition.
func (t TransitionConfig) toActive(s LinkState) int64 {
	if s == TransitionToActiveFromFast {
		return t.FastToActive
	}
	return t.DeepToActive
}

// Validate checks the configuration for logical consistency. It is run once
// before a simulation starts; every error aborts the run.
func (c *Config) Validate() error {
	if math.IsNaN(c.Link.Capacity) || math.IsInf(c.Link.Capacity, 0) || c.Link.Capacity <= 0 {
		return fmt.Errorf("link capacity must be a positive finite number, got %v", c.Link.Capacity)
	}
	if c.Link.MaxQueueSize < 0 {
		return fmt.Errorf("max queue size must be non-negative, got %d", c.Link.MaxQueueSize)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("simulation length must be positive, got %d ticks", c.Horizon)
	}
	t := c.Transitions
	if t.ActiveToFast < 0 || t.FastToDeep < 0 || t.FastToActive < 0 || t.DeepToActive < 0 {
		return fmt.Errorf("transition durations must be non-negative, got %+v", t)
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"fast wake consumption", c.Power.FastWakeConsumption},
		{"deep sleep consumption", c.Power.DeepSleepConsumption},
	} {
		if math.IsNaN(p.v) || p.v < 0 || p.v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %v", p.name, p.v)
		}
	}

	co := c.Coalescing
	if !co.Mode.IsValid() {
		return fmt.Errorf("invalid EEE operation mode %q", co.Mode)
	}
	if co.TargetDelay < 0 || co.MaxDelay < 0 || co.MaxFastWakeTime < 0 {
		return fmt.Errorf("coalescing delays must be non-negative")
	}
	if co.FastToActiveQth < 1 || co.DeepToActiveQth < 1 {
		return fmt.Errorf("queue thresholds must be at least 1, got fast=%d deep=%d", co.FastToActiveQth, co.DeepToActiveQth)
	}
	switch co.Mode {
	case ModeFastDyn, ModeDualDyn, ModeFastMul, ModeFastTimeDyn:
		if float64(co.TargetDelay) < float64(t.FastToActive)/2 {
			return fmt.Errorf("too low target delay: %d ps is below fast_to_active_t/2", co.TargetDelay)
		}
	case ModeDeepDyn, ModeDeepMul, ModeDeepTimeDyn:
		if float64(co.TargetDelay) < float64(t.DeepToActive)/2 {
			return fmt.Errorf("too low target delay: %d ps is below deep_to_active_t/2", co.TargetDelay)
		}
	}
	if co.MaxDelay != 0 {
		if co.MaxDelay < co.MaxFastWakeTime || co.MaxDelay < co.TargetDelay {
			return fmt.Errorf("too low max delay: %d ps must not be below max fast wake time or target delay", co.MaxDelay)
		}
		if path := c.longestSleepCycle(); co.MaxDelay < path {
			return fmt.Errorf("too low max delay: %d ps is shorter than the %d ps sleep entry and wake path", co.MaxDelay, path)
		}
	}
	if co.DeepToActiveQth < co.FastToActiveQth {
		return fmt.Errorf("too low deep to active queue threshold: %d < %d", co.DeepToActiveQth, co.FastToActiveQth)
	}

	if c.Traffic == nil {
		return fmt.Errorf("traffic generator is required")
	}
	if c.FrameSizes == nil {
		return fmt.Errorf("frame size generator is required")
	}
	return nil
}

// longestSleepCycle returns the longest sleep entry plus wake duration the mode
// can go through.
func (c *Config) longestSleepCycle() int64 {
	t := c.Transitions
	fast := t.ActiveToFast + t.FastToActive
	deep := t.ActiveToFast + t.FastToDeep + t.DeepToActive
	if c.Coalescing.Mode.TargetsFast() {
		return fast
	}
	return max(fast, deep)
}
