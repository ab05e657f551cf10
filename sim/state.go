package sim

import "fmt"

// LinkState is the power state of the EEE link.
type LinkState int

const (
	// Active: the link is transmitting or ready to transmit.
	Active LinkState = iota
	// FastWake: low power, short recovery (clock kept running).
	FastWake
	// DeepSleep: very low power, long recovery (clock stopped).
	DeepSleep
	// TransitionToActiveFromFast: waking up from FastWake.
	TransitionToActiveFromFast
	// TransitionToActiveFromDeep: waking up from DeepSleep.
	TransitionToActiveFromDeep
	// TransitionToFast: entering FastWake.
	TransitionToFast
	// TransitionToDeep: entering DeepSleep.
	TransitionToDeep

	numLinkStates
)

// AllLinkStates lists every state in report order.
var AllLinkStates = [numLinkStates]LinkState{
	Active, FastWake, DeepSleep,
	TransitionToActiveFromFast, TransitionToActiveFromDeep,
	TransitionToFast, TransitionToDeep,
}

var linkStateNames = [numLinkStates]string{
	"ACTIVE",
	"FAST_WAKE",
	"DEEP_SLEEP",
	"TRANSITION_TO_ACTIVE_FROM_FAST",
	"TRANSITION_TO_ACTIVE_FROM_DEEP",
	"TRANSITION_TO_FAST",
	"TRANSITION_TO_DEEP",
}

func (s LinkState) String() string {
	if s < 0 || s >= numLinkStates {
		return fmt.Sprintf("LinkState(%d)", int(s))
	}
	return linkStateNames[s]
}

// IsWaking reports whether s is one of the two transitions towards Active.
func (s LinkState) IsWaking() bool {
	return s == TransitionToActiveFromFast || s == TransitionToActiveFromDeep
}

// IsSleeping reports whether s is a low-power state or a transition into one.
func (s LinkState) IsSleeping() bool {
	switch s {
	case FastWake, DeepSleep, TransitionToFast, TransitionToDeep:
		return true
	}
	return false
}

// onFastPath reports whether s belongs to the fast wake side of the machine.
func (s LinkState) onFastPath() bool {
	return s == FastWake || s == TransitionToFast
}
