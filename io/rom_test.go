package io

import (
	"bytes"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestLoadRom(t *testing.T) {
	assert := assert.New(t)

	filesys := fstest.MapFS{
		"roms/ibm.ch8": &fstest.MapFile{Data: []byte{0x00, 0xe0, 0x12, 0x02}},
		"empty.ch8":    &fstest.MapFile{Data: []byte{}},
	}

	rom, err := LoadRom(filesys, "roms/ibm.ch8")
	assert.NoError(err)
	assert.Equal("ibm.ch8", rom.Name)
	assert.Equal([]byte{0x00, 0xe0, 0x12, 0x02}, rom.Data)

	_, err = LoadRom(filesys, "empty.ch8")
	assert.ErrorIs(err, ErrRomEmpty)

	_, err = LoadRom(filesys, "missing.ch8")
	assert.ErrorIs(err, ErrRomMissing)
}

func TestRom_Marshal(t *testing.T) {
	assert := assert.New(t)

	rom := &Rom{Name: "x", Data: []byte{1, 2, 3}}
	buf := &bytes.Buffer{}
	assert.NoError(rom.Marshal(buf))
	assert.Equal([]byte{1, 2, 3}, buf.Bytes())
}
