// Package vad provides voice activity detection backends for the pipeline's
// classify stage.
package vad

import (
	"fmt"
	"math"

	"github.com/snarg/verba/internal/pipeline"
)

const (
	// frameSeconds is the analysis frame length. 30ms matches what
	// webrtc-style detectors use.
	frameSeconds = 0.03

	// defaultSilenceThreshold is the RMS level below which a frame counts as
	// silence, on normalized [-1, 1] samples.
	defaultSilenceThreshold = 0.01

	// activityRatio is the minimum fraction of voiced frames for a chunk to
	// count as speech.
	activityRatio = 0.1
)

// Energy is a threshold-based voice activity detector. It frames the audio,
// measures per-frame RMS against SilenceThreshold, and calls the chunk speech
// when enough frames are voiced. Stateless, so safe for concurrent use.
type Energy struct {
	SilenceThreshold float64
}

// NewEnergy builds a detector; threshold <= 0 selects the default.
func NewEnergy(threshold float64) *Energy {
	if threshold <= 0 {
		threshold = defaultSilenceThreshold
	}
	return &Energy{SilenceThreshold: threshold}
}

// Classify implements pipeline.Classifier.
func (e *Energy) Classify(samples []float64, sampleRate int) (pipeline.Detection, error) {
	if sampleRate <= 0 {
		return pipeline.Detection{}, fmt.Errorf("energy vad: sample rate must be positive, got %d", sampleRate)
	}
	if len(samples) == 0 {
		return pipeline.Detection{Confidence: 1}, nil
	}

	frame := int(frameSeconds * float64(sampleRate))
	if frame < 1 {
		frame = 1
	}

	frames, voiced := 0, 0
	for off := 0; off < len(samples); off += frame {
		end := off + frame
		if end > len(samples) {
			end = len(samples)
		}
		frames++
		if frameRMS(samples[off:end]) >= e.SilenceThreshold {
			voiced++
		}
	}

	ratio := float64(voiced) / float64(frames)
	speechSeconds := float64(voiced) * frameSeconds

	det := pipeline.Detection{SpeechSeconds: speechSeconds}
	if ratio > activityRatio {
		det.HasSpeech = true
		det.Confidence = math.Min(1, 0.5+ratio/2)
	} else {
		det.Confidence = math.Min(1, 1-ratio)
	}
	return det, nil
}

func frameRMS(samples []float64) float64 {
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
