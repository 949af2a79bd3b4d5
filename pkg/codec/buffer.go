package codec

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
)

// Buffer is a decoded mono audio clip ready for playback. It implements
// beep.StreamSeeker; the mono samples are duplicated onto both output
// channels when streamed.
type Buffer struct {
	samples    []float64
	sampleRate int
	pos        int
}

// NewBuffer wraps normalized samples at the given rate.
func NewBuffer(samples []float64, sampleRate int) *Buffer {
	return &Buffer{samples: samples, sampleRate: sampleRate}
}

// SampleRate returns the buffer's sample rate.
func (b *Buffer) SampleRate() beep.SampleRate {
	return beep.SampleRate(b.sampleRate)
}

// Duration returns the clip length in wall time.
func (b *Buffer) Duration() time.Duration {
	return b.SampleRate().D(len(b.samples))
}

// Samples exposes the underlying normalized sample sequence.
func (b *Buffer) Samples() []float64 {
	return b.samples
}

// Stream implements beep.Streamer.
func (b *Buffer) Stream(samples [][2]float64) (n int, ok bool) {
	if b.pos >= len(b.samples) {
		return 0, false
	}
	for n = 0; n < len(samples) && b.pos < len(b.samples); n++ {
		v := b.samples[b.pos]
		samples[n][0] = v
		samples[n][1] = v
		b.pos++
	}
	return n, true
}

// Err implements beep.Streamer. Decoding happens up front, so streaming
// itself can never fail.
func (b *Buffer) Err() error {
	return nil
}

// Len implements beep.StreamSeeker.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Position implements beep.StreamSeeker.
func (b *Buffer) Position() int {
	return b.pos
}

// Seek implements beep.StreamSeeker. Rewinding to 0 makes the same buffer
// replayable without re-decoding.
func (b *Buffer) Seek(p int) error {
	if p < 0 || p > len(b.samples) {
		return fmt.Errorf("seek position %d out of range [0, %d]", p, len(b.samples))
	}
	b.pos = p
	return nil
}
