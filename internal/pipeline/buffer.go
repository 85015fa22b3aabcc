package pipeline

import "fmt"

// Buffer is an immutable view over mono PCM samples at a fixed sample rate.
// Amplitudes are normalized to [-1, 1]. Once constructed it is never mutated,
// so it may be shared freely across classifier and scheduler workers.
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// NewBuffer validates and wraps raw samples.
func NewBuffer(samples []float64, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, sampleRate)
	}
	return &Buffer{Samples: samples, SampleRate: sampleRate}, nil
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}
