package workload

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sherreria/DualModeEeeSimulator/sim"
)

// TrafficSpec describes the frame arrival process.
type TrafficSpec struct {
	Distribution string  `yaml:"distribution"` // deterministic, poisson, pareto, trace
	Rate         float64 `yaml:"rate"`         // offered load in b/s
	Alpha        float64 `yaml:"alpha,omitempty"`
	TraceFile    string  `yaml:"trace_file,omitempty"` // inter-arrival times in seconds
}

// FrameSizeSpec describes the frame size process.
type FrameSizeSpec struct {
	Distribution string `yaml:"distribution"` // deterministic, uniform, bimodal, trace
	Size         int    `yaml:"size"`         // mean frame size in bytes
	Range        int    `yaml:"range,omitempty"`
	TraceFile    string `yaml:"trace_file,omitempty"`
}

// Valid value registries.
var (
	validTrafficDistributions = map[string]bool{
		"deterministic": true, "poisson": true, "pareto": true, "trace": true,
	}
	validFrameSizeDistributions = map[string]bool{
		"deterministic": true, "uniform": true, "bimodal": true, "trace": true,
	}
)

// Validate checks that the traffic spec is usable with frames of the given mean size.
func (s *TrafficSpec) Validate() error {
	if !validTrafficDistributions[s.Distribution] {
		return fmt.Errorf("unknown traffic distribution %q; valid: deterministic, poisson, pareto, trace", s.Distribution)
	}
	if s.Distribution == "trace" {
		if s.TraceFile == "" {
			return fmt.Errorf("traffic: trace distribution requires trace_file")
		}
		return nil
	}
	if err := validateFinitePositive("traffic.rate", s.Rate); err != nil {
		return err
	}
	if s.Distribution == "pareto" {
		if math.IsNaN(s.Alpha) || math.IsInf(s.Alpha, 0) || s.Alpha <= 1 {
			return fmt.Errorf("traffic.alpha must be greater than 1 for pareto, got %f", s.Alpha)
		}
	}
	return nil
}

// Validate checks the frame size spec.
func (s *FrameSizeSpec) Validate() error {
	if !validFrameSizeDistributions[s.Distribution] {
		return fmt.Errorf("unknown frame size distribution %q; valid: deterministic, uniform, bimodal, trace", s.Distribution)
	}
	if s.Distribution == "trace" {
		if s.TraceFile == "" {
			return fmt.Errorf("frame_size: trace distribution requires trace_file")
		}
	}
	if s.Size <= 0 {
		return fmt.Errorf("frame_size.size must be positive, got %d", s.Size)
	}
	switch s.Distribution {
	case "uniform":
		if s.Range < 0 || s.Range/2 >= s.Size {
			return fmt.Errorf("frame_size.range must be in [0, 2*size), got %d", s.Range)
		}
	case "bimodal":
		if s.Size < ShortFrameSize || s.Size > LongFrameSize {
			return fmt.Errorf("frame_size.size must be in [%d, %d] for bimodal, got %d", ShortFrameSize, LongFrameSize, s.Size)
		}
	}
	return nil
}

// NewTrafficGenerator builds the arrival process. meanFrameSize converts the bit
// rate into a frame rate. Trace files are read eagerly so I/O errors surface
// before the run starts.
func NewTrafficGenerator(spec TrafficSpec, meanFrameSize int, rng *rand.Rand) (sim.TrafficGenerator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	switch spec.Distribution {
	case "deterministic":
		return NewDeterministicTraffic(spec.Rate, meanFrameSize), nil
	case "poisson":
		return NewPoissonTraffic(spec.Rate, meanFrameSize, rng), nil
	case "pareto":
		return NewParetoTraffic(spec.Rate, meanFrameSize, spec.Alpha, rng), nil
	case "trace":
		ia, err := LoadInterarrivalTrace(spec.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("loading traffic trace: %w", err)
		}
		return NewTraceTraffic(ia), nil
	}
	return nil, fmt.Errorf("unknown traffic distribution %q", spec.Distribution)
}

// NewFrameSizeGenerator builds the frame size process.
func NewFrameSizeGenerator(spec FrameSizeSpec, rng *rand.Rand) (sim.FrameSizeGenerator, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	switch spec.Distribution {
	case "deterministic":
		return NewDeterministicFrameSize(spec.Size), nil
	case "uniform":
		return NewUniformFrameSize(spec.Size, spec.Range, rng), nil
	case "bimodal":
		return NewBimodalFrameSize(spec.Size, rng), nil
	case "trace":
		sizes, err := LoadFrameSizeTrace(spec.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("loading frame size trace: %w", err)
		}
		return NewTraceFrameSize(sizes), nil
	}
	return nil, fmt.Errorf("unknown frame size distribution %q", spec.Distribution)
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}
