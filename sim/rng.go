// Seeding of the random streams behind the traffic and frame size generators.

package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the seed of a run. Two runs with the same key and the same
// configuration produce identical statistics.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Stream names.
const (
	// SubsystemTraffic drives frame inter-arrival times. It is seeded with the
	// run seed itself.
	SubsystemTraffic = "traffic"

	// SubsystemFrameSize drives frame sizes.
	SubsystemFrameSize = "frame_size"
)

// PartitionedRNG hands out one independent *rand.Rand per named stream, so that
// drawing more inter-arrival times never shifts the frame size sequence.
//
// The traffic stream uses the key directly; every other stream uses
// key XOR FNV-1a(name).
//
// Thread-safety: NOT thread-safe.
type PartitionedRNG struct {
	key     SimulationKey
	streams map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, streams: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the stream for name, creating it on first use.
// Repeated calls return the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	rng, ok := p.streams[name]
	if !ok {
		rng = rand.New(rand.NewSource(p.seedFor(name)))
		p.streams[name] = rng
	}
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func (p *PartitionedRNG) seedFor(name string) int64 {
	if name == SubsystemTraffic {
		return int64(p.key)
	}
	h := fnv.New64a()
	h.Write([]byte(name)) //nolint:errcheck // hash writes never fail
	return int64(p.key) ^ int64(h.Sum64())
}
