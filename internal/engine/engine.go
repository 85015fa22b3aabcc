// Package engine provides speech-to-text backends and the adapter that
// plugs them into the pipeline.
package engine

import "context"

// Client is the interface for speech-to-text backends.
type Client interface {
	Transcribe(ctx context.Context, samples []float64, sampleRate int) (*Response, error)
	Name() string  // "whisper", "mock"
	Model() string // model identifier for DB/logs
}

// Response is the common transcription result from any backend.
type Response struct {
	Text     string
	Language string
	Duration float64 // audio duration in seconds
	Words    []Word  // nil if the backend doesn't support word timestamps
}

// Word is a timestamped word from the backend.
type Word struct {
	Word  string
	Start float64 // seconds
	End   float64
}

// Text adapts a Client to the plain-text engine contract the pipeline
// schedules against, dropping the metadata the pipeline has no use for.
type Text struct {
	Client Client
}

func (t Text) Transcribe(ctx context.Context, samples []float64, sampleRate int) (string, error) {
	resp, err := t.Client.Transcribe(ctx, samples, sampleRate)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
