// Package producer generates synthetic live-appending signals for the demo
// binary and for exercising the pipeline in tests.
//
// Real deployments replace this package with file decoders (e.g. MDF4);
// anything that appends matched (time, value) samples across frame
// boundaries is a valid producer.
package producer

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// NoiseSource provides deterministic per-signal random generators.
// Seeding per signal keeps each trace's noise pattern stable across
// restarts while different signals stay decorrelated.
type NoiseSource struct {
	configSeed int64
}

// NewNoiseSource creates a noise source with the given seed.
func NewNoiseSource(configSeed int64) *NoiseSource {
	return &NoiseSource{configSeed: configSeed}
}

// NewNoiseSourceFromTime creates a noise source seeded from the current
// time.
func NewNoiseSourceFromTime() *NoiseSource {
	return NewNoiseSource(time.Now().UnixNano())
}

// ForSignal returns a generator seeded for a specific signal ID.
// The same ID always produces the same sequence.
func (n *NoiseSource) ForSignal(id string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(id))
	return rand.New(rand.NewSource(int64(h.Sum64()) ^ n.configSeed))
}
