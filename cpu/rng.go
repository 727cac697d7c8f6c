package cpu

import (
	"math/rand/v2"
)

const (
	DEFAULT_SEED = uint64(0xc8c8_5eed) // Seed used when none is configured.
)

// Rng is the deterministic random byte source of a machine.
type Rng struct {
	Seed uint64
	rand *rand.Rand
}

// NewRng creates a random source from a seed.
func NewRng(seed uint64) (rng *Rng) {
	rng = &Rng{Seed: seed}
	rng.Reset()
	return
}

// Reset restarts the sequence from the seed.
func (rng *Rng) Reset() {
	rng.rand = rand.New(rand.NewPCG(rng.Seed, rng.Seed^0x9e3779b97f4a7c15))
}

// Byte returns the next random byte.
func (rng *Rng) Byte() uint8 {
	return uint8(rng.rand.Uint32() >> 24)
}
