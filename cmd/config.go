package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sherreria/DualModeEeeSimulator/sim"
	"github.com/sherreria/DualModeEeeSimulator/sim/workload"
)

// FileConfig represents the full simulation configuration file.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
// Durations are in seconds.
type FileConfig struct {
	Simulation SimulationSection      `yaml:"simulation"`
	Link       LinkSection            `yaml:"link"`
	Traffic    workload.TrafficSpec   `yaml:"traffic"`
	FrameSize  workload.FrameSizeSpec `yaml:"frame_size"`
	Fast       FastSection            `yaml:"fast"`
	Deep       DeepSection            `yaml:"deep"`
	EEE        EEESection             `yaml:"eee"`
}

type SimulationSection struct {
	Length  float64 `yaml:"length"`
	Seed    int64   `yaml:"seed"`
	Verbose bool    `yaml:"verbose"`
}

type LinkSection struct {
	Capacity     float64 `yaml:"capacity"` // b/s
	MaxQueueSize int     `yaml:"max_queue_size"`
}

type FastSection struct {
	Consumption   float64 `yaml:"consumption"`
	ActiveToFastT float64 `yaml:"active_to_fast_t"`
	FastToActiveT float64 `yaml:"fast_to_active_t"`
}

type DeepSection struct {
	Consumption   float64 `yaml:"consumption"`
	FastToDeepT   float64 `yaml:"fast_to_deep_t"`
	DeepToActiveT float64 `yaml:"deep_to_active_t"`
}

type EEESection struct {
	Mode            string  `yaml:"mode"`
	TargetDelay     float64 `yaml:"target_delay"`
	MaxDelay        float64 `yaml:"max_delay"`
	FastToActiveQth int     `yaml:"fast_to_active_qth"`
	DeepToActiveQth int     `yaml:"deep_to_active_qth"`
	MaxFastWakeTime float64 `yaml:"max_fast_wake_time"`
}

// DefaultFileConfig returns the configuration used when no file is given:
// a 40 Gb/s link carrying 1 Gb/s of 1500 byte frames in dual mode.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Simulation: SimulationSection{Length: 10, Seed: 123456789},
		Link:       LinkSection{Capacity: 40e9},
		Traffic:    workload.TrafficSpec{Distribution: "deterministic", Rate: 1e9, Alpha: 2.5},
		FrameSize:  workload.FrameSizeSpec{Distribution: "deterministic", Size: 1500},
		Fast:       FastSection{Consumption: 0.7, ActiveToFastT: 0.9e-6, FastToActiveT: 0.34e-6},
		Deep:       DeepSection{Consumption: 0.1, FastToDeepT: 1e-6, DeepToActiveT: 5.5e-6},
		EEE: EEESection{
			Mode:            string(sim.ModeDual),
			TargetDelay:     32e-6,
			MaxDelay:        128e-6,
			FastToActiveQth: 1,
			DeepToActiveQth: 1,
			MaxFastWakeTime: 3.5e-6,
		},
	}
}

// LoadFileConfig reads path on top of the defaults.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadFileConfig(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Build converts the file configuration into a validated sim.Config with
// seeded generators.
func (fc FileConfig) Build() (sim.Config, error) {
	mode, err := sim.ParseOperationMode(fc.EEE.Mode)
	if err != nil {
		return sim.Config{}, fmt.Errorf("eee.mode: %w", err)
	}
	for _, d := range []struct {
		name string
		v    float64
	}{
		{"simulation.length", fc.Simulation.Length},
		{"fast.active_to_fast_t", fc.Fast.ActiveToFastT},
		{"fast.fast_to_active_t", fc.Fast.FastToActiveT},
		{"deep.fast_to_deep_t", fc.Deep.FastToDeepT},
		{"deep.deep_to_active_t", fc.Deep.DeepToActiveT},
		{"eee.target_delay", fc.EEE.TargetDelay},
		{"eee.max_delay", fc.EEE.MaxDelay},
		{"eee.max_fast_wake_time", fc.EEE.MaxFastWakeTime},
	} {
		if d.v < 0 {
			return sim.Config{}, fmt.Errorf("%s must be non-negative, got %g", d.name, d.v)
		}
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(fc.Simulation.Seed))
	traffic, err := workload.NewTrafficGenerator(fc.Traffic, fc.FrameSize.Size, rng.ForSubsystem(sim.SubsystemTraffic))
	if err != nil {
		return sim.Config{}, fmt.Errorf("traffic: %w", err)
	}
	sizes, err := workload.NewFrameSizeGenerator(fc.FrameSize, rng.ForSubsystem(sim.SubsystemFrameSize))
	if err != nil {
		return sim.Config{}, fmt.Errorf("frame_size: %w", err)
	}

	cfg := sim.Config{
		Link: sim.LinkConfig{Capacity: fc.Link.Capacity, MaxQueueSize: fc.Link.MaxQueueSize},
		Transitions: sim.TransitionConfig{
			ActiveToFast: sim.Seconds(fc.Fast.ActiveToFastT),
			FastToDeep:   sim.Seconds(fc.Deep.FastToDeepT),
			FastToActive: sim.Seconds(fc.Fast.FastToActiveT),
			DeepToActive: sim.Seconds(fc.Deep.DeepToActiveT),
		},
		Power: sim.PowerConfig{
			FastWakeConsumption:  fc.Fast.Consumption,
			DeepSleepConsumption: fc.Deep.Consumption,
		},
		Coalescing: sim.CoalescingConfig{
			Mode:            mode,
			TargetDelay:     sim.Seconds(fc.EEE.TargetDelay),
			MaxDelay:        sim.Seconds(fc.EEE.MaxDelay),
			FastToActiveQth: fc.EEE.FastToActiveQth,
			DeepToActiveQth: fc.EEE.DeepToActiveQth,
			MaxFastWakeTime: sim.Seconds(fc.EEE.MaxFastWakeTime),
		},
		Horizon:    sim.Seconds(fc.Simulation.Length),
		Seed:       fc.Simulation.Seed,
		Traffic:    traffic,
		FrameSizes: sizes,
		Verbose:    fc.Simulation.Verbose,
	}
	if err := cfg.Validate(); err != nil {
		return sim.Config{}, err
	}
	return cfg, nil
}
