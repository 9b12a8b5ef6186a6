package emu

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth = 16
	wavChannels = 2
	wavPCM      = 1
)

// WAVWriter records interleaved 16-bit stereo output into a WAV file. It
// implements Output.
type WAVWriter struct {
	enc *wav.Encoder
	buf audio.IntBuffer
	n   int // samples written, per channel
}

// NewWAVWriter starts a WAV stream on w. Close must be called to finalize the
// file header.
func NewWAVWriter(w io.WriteSeeker, sampleRate int) *WAVWriter {
	return &WAVWriter{
		enc: wav.NewEncoder(w, sampleRate, wavBitDepth, wavChannels, wavPCM),
		buf: audio.IntBuffer{
			Format:         &audio.Format{NumChannels: wavChannels, SampleRate: sampleRate},
			SourceBitDepth: wavBitDepth,
		},
	}
}

func (ww *WAVWriter) EndFrame(_ []byte, samples []int16) error {
	return ww.Write(samples)
}

// Write appends interleaved left/right samples.
func (ww *WAVWriter) Write(samples []int16) error {
	if len(samples)%wavChannels != 0 {
		return fmt.Errorf("wav: odd number of stereo samples (%d)", len(samples))
	}
	ww.buf.Data = ww.buf.Data[:0]
	for _, s := range samples {
		ww.buf.Data = append(ww.buf.Data, int(s))
	}
	if err := ww.enc.Write(&ww.buf); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	ww.n += len(samples) / wavChannels
	return nil
}

// Samples returns the number of stereo samples written.
func (ww *WAVWriter) Samples() int { return ww.n }

func (ww *WAVWriter) Close() error {
	if err := ww.enc.Close(); err != nil {
		return fmt.Errorf("wav: %w", err)
	}
	return nil
}
