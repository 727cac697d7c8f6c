package io

import (
	"errors"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	WAV_SAMPLE_RATE = 44100 // Samples per second.
	WAV_BIT_DEPTH   = 16    // Bits per sample.
	WAV_TONE_HZ     = 440   // Beeper tone.
	WAV_AMPLITUDE   = 8192  // Square wave peak.
	WAV_FRAME_HZ    = 60    // Beep calls per second.
)

// WavRecorder records the beeper as a mono square wave, one frame of
// samples per Beep call.
type WavRecorder struct {
	SampleRate int
	ToneHz     int

	encoder *wav.Encoder
	phase   int // Sample position within the tone period.
	Frames  int // Frames recorded.
}

// NewWavRecorder creates a recorder writing a WAV stream.
func NewWavRecorder(ws io.WriteSeeker) (wr *WavRecorder) {
	wr = &WavRecorder{
		SampleRate: WAV_SAMPLE_RATE,
		ToneHz:     WAV_TONE_HZ,
		encoder:    wav.NewEncoder(ws, WAV_SAMPLE_RATE, WAV_BIT_DEPTH, 1, 1),
	}

	return
}

// Beep records a frame of tone when active, or a frame of silence.
func (wr *WavRecorder) Beep(active bool) (err error) {
	count := wr.SampleRate / WAV_FRAME_HZ
	period := max(2, wr.SampleRate/wr.ToneHz)

	data := make([]int, count)
	if active {
		for n := range data {
			if (wr.phase+n)%period < period/2 {
				data[n] = WAV_AMPLITUDE
			} else {
				data[n] = -WAV_AMPLITUDE
			}
		}
	}
	wr.phase = (wr.phase + count) % period

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  wr.SampleRate,
		},
		Data:           data,
		SourceBitDepth: WAV_BIT_DEPTH,
	}

	err = wr.encoder.Write(buf)
	if err != nil {
		err = errors.Join(ErrWavEncoding, err)
		return
	}

	wr.Frames++

	return
}

// Close finishes the WAV headers.
func (wr *WavRecorder) Close() (err error) {
	err = wr.encoder.Close()
	if err != nil {
		err = errors.Join(ErrWavEncoding, err)
	}

	return
}
