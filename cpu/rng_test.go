package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRng_Deterministic(t *testing.T) {
	assert := assert.New(t)

	a := NewRng(1234)
	b := NewRng(1234)
	c := NewRng(4321)

	var seq_a, seq_b, seq_c []uint8
	for range 64 {
		seq_a = append(seq_a, a.Byte())
		seq_b = append(seq_b, b.Byte())
		seq_c = append(seq_c, c.Byte())
	}

	assert.Equal(seq_a, seq_b)
	assert.NotEqual(seq_a, seq_c)
}

func TestRng_Reset(t *testing.T) {
	assert := assert.New(t)

	rng := NewRng(DEFAULT_SEED)
	first := []uint8{rng.Byte(), rng.Byte(), rng.Byte()}

	rng.Reset()
	again := []uint8{rng.Byte(), rng.Byte(), rng.Byte()}

	assert.Equal(first, again)
}
