package sim

import (
	"fmt"
	"strings"
)

// OperationMode selects the coalescing strategy of the link. It is fixed for a run.
type OperationMode string

const (
	// ModeDual sleeps in FastWake and falls into DeepSleep after MaxFastWakeTime.
	ModeDual OperationMode = "dual"
	// ModeFast only uses FastWake.
	ModeFast OperationMode = "fast"
	// ModeDeep only uses DeepSleep.
	ModeDeep OperationMode = "deep"
	// ModeDualDyn picks fast or deep at every drain from the delay crossover and
	// adapts both queue thresholds.
	ModeDualDyn OperationMode = "dual_dyn"
	// ModeFastDyn adapts the fast wake queue threshold to the arrival rate.
	ModeFastDyn OperationMode = "fast_dyn"
	// ModeDeepDyn adapts the deep sleep queue threshold to the arrival rate.
	ModeDeepDyn OperationMode = "deep_dyn"
	// ModeFastMul adapts the fast wake queue threshold to arrival rate and utilization.
	ModeFastMul OperationMode = "fast_mul"
	// ModeDeepMul adapts the deep sleep queue threshold to arrival rate and utilization.
	ModeDeepMul OperationMode = "deep_mul"
	// ModeFastTimeDyn adapts the maximum coalescing delay while in fast wake.
	ModeFastTimeDyn OperationMode = "fast_time_dyn"
	// ModeDeepTimeDyn adapts the maximum coalescing delay while in deep sleep.
	ModeDeepTimeDyn OperationMode = "deep_time_dyn"
	// ModeMostowfi uses a fast wake coalescing timer and re-enters deep sleep
	// only after a lightly loaded cycle.
	ModeMostowfi OperationMode = "mostowfi"
)

var validOperationModes = map[OperationMode]bool{
	ModeDual: true, ModeFast: true, ModeDeep: true,
	ModeDualDyn: true, ModeFastDyn: true, ModeDeepDyn: true,
	ModeFastMul: true, ModeDeepMul: true,
	ModeFastTimeDyn: true, ModeDeepTimeDyn: true,
	ModeMostowfi: true,
}

// ParseOperationMode validates a mode name.
func ParseOperationMode(name string) (OperationMode, error) {
	m := OperationMode(strings.ToLower(strings.TrimSpace(name)))
	if !validOperationModes[m] {
		return "", fmt.Errorf("unknown operation mode %q; valid: dual, fast, deep, dual_dyn, fast_dyn, deep_dyn, fast_mul, deep_mul, fast_time_dyn, deep_time_dyn, mostowfi", name)
	}
	return m, nil
}

// IsValid reports whether m is a known mode.
func (m OperationMode) IsValid() bool { return validOperationModes[m] }

// TargetsDeep reports whether the mode always goes to DeepSleep on drain.
func (m OperationMode) TargetsDeep() bool {
	switch m {
	case ModeDeep, ModeDeepDyn, ModeDeepMul, ModeDeepTimeDyn:
		return true
	}
	return false
}

// TargetsFast reports whether the mode always goes to FastWake on drain.
func (m OperationMode) TargetsFast() bool {
	switch m {
	case ModeFast, ModeFastDyn, ModeFastMul, ModeFastTimeDyn:
		return true
	}
	return false
}

// IsAdaptive reports whether the mode derives thresholds or delay bounds at run time.
func (m OperationMode) IsAdaptive() bool {
	switch m {
	case ModeDualDyn, ModeFastDyn, ModeDeepDyn, ModeFastMul, ModeDeepMul,
		ModeFastTimeDyn, ModeDeepTimeDyn, ModeMostowfi:
		return true
	}
	return false
}

// AdaptsDelayBound reports whether the backstop delay bound is derived at run time.
func (m OperationMode) AdaptsDelayBound() bool {
	return m == ModeFastTimeDyn || m == ModeDeepTimeDyn
}
