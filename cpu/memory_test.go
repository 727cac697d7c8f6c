package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory_Fetch(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.Reset()
	assert.NoError(mem.Load([]byte{0x12, 0x34, 0xab}))

	code, err := mem.Fetch(PROGRAM_START)
	assert.NoError(err)
	assert.Equal(Code(0x1234), code)

	code, err = mem.Fetch(PROGRAM_START + 1)
	assert.NoError(err)
	assert.Equal(Code(0x34ab), code)

	code, err = mem.Fetch(FONT_BASE)
	assert.NoError(err)
	assert.Equal(Code(0xf090), code)

	_, err = mem.Fetch(MEMORY_SIZE - 2)
	assert.NoError(err)

	_, err = mem.Fetch(MEMORY_SIZE - 1)
	assert.ErrorIs(err, ErrOutOfBounds)
	assert.Equal(ErrAddress(MEMORY_SIZE-1), err)
}

func TestMemory_Slice(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}

	data, err := mem.Slice(0x300, 4)
	assert.NoError(err)
	assert.Len(data, 4)
	data[1] = 0x5a
	assert.Equal(uint8(0x5a), mem[0x301])

	data, err = mem.Slice(MEMORY_SIZE-3, 3)
	assert.NoError(err)
	assert.Len(data, 3)

	_, err = mem.Slice(MEMORY_SIZE-3, 4)
	assert.ErrorIs(err, ErrOutOfBounds)

	data, err = mem.Slice(0x300, 0)
	assert.NoError(err)
	assert.Empty(data)
}

func TestMemory_Font(t *testing.T) {
	assert := assert.New(t)

	mem := &Memory{}
	mem.Reset()

	// Glyph 'F'
	base := FONT_BASE + 0xf*FONT_HEIGHT
	assert.Equal([]byte{0xf0, 0x80, 0xf0, 0x80, 0x80}, mem[base:base+FONT_HEIGHT])
}
