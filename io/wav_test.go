package io

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
)

func TestWavRecorder(t *testing.T) {
	assert := assert.New(t)

	name := filepath.Join(t.TempDir(), "beep.wav")
	file, err := os.Create(name)
	if !assert.NoError(err) {
		return
	}

	wr := NewWavRecorder(file)
	assert.NoError(wr.Beep(true))
	assert.NoError(wr.Beep(false))
	assert.NoError(wr.Close())
	assert.NoError(file.Close())
	assert.Equal(2, wr.Frames)

	file, err = os.Open(name)
	if !assert.NoError(err) {
		return
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	assert.True(dec.IsValidFile())

	buf, err := dec.FullPCMBuffer()
	assert.NoError(err)
	assert.Equal(uint32(WAV_SAMPLE_RATE), dec.SampleRate)
	assert.Equal(uint16(1), dec.NumChans)
	assert.Equal(uint16(WAV_BIT_DEPTH), dec.BitDepth)

	frame := WAV_SAMPLE_RATE / WAV_FRAME_HZ
	if !assert.Len(buf.Data, 2*frame) {
		return
	}

	tone := buf.Data[:frame]
	assert.Equal(WAV_AMPLITUDE, tone[0])
	assert.Contains(tone, -WAV_AMPLITUDE)

	for _, sample := range buf.Data[frame:] {
		if !assert.Zero(sample) {
			break
		}
	}
}
