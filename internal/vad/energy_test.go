package vad

import (
	"math"
	"testing"
)

func tone(seconds float64, rate int, amp float64) []float64 {
	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*440*float64(i)/float64(rate))
	}
	return samples
}

func TestEnergyClassifySpeech(t *testing.T) {
	det, err := NewEnergy(0).Classify(tone(1, 8000, 0.5), 8000)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !det.HasSpeech {
		t.Error("HasSpeech = false for loud tone, want true")
	}
	if det.Confidence <= 0.5 {
		t.Errorf("Confidence = %g, want > 0.5", det.Confidence)
	}
	if det.SpeechSeconds < 0.9 {
		t.Errorf("SpeechSeconds = %g, want close to 1", det.SpeechSeconds)
	}
}

func TestEnergyClassifySilence(t *testing.T) {
	det, err := NewEnergy(0).Classify(make([]float64, 8000), 8000)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if det.HasSpeech {
		t.Error("HasSpeech = true for digital silence, want false")
	}
	if det.SpeechSeconds != 0 {
		t.Errorf("SpeechSeconds = %g, want 0", det.SpeechSeconds)
	}
}

func TestEnergyClassifyMixed(t *testing.T) {
	rate := 8000
	// 0.3s of tone followed by 0.7s of silence: voiced ratio ~0.3.
	samples := append(tone(0.3, rate, 0.5), make([]float64, int(0.7*float64(rate)))...)

	det, err := NewEnergy(0).Classify(samples, rate)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if !det.HasSpeech {
		t.Error("HasSpeech = false at 30% activity, want true")
	}
	if det.SpeechSeconds < 0.2 || det.SpeechSeconds > 0.4 {
		t.Errorf("SpeechSeconds = %g, want about 0.3", det.SpeechSeconds)
	}
}

func TestEnergyClassifyBelowActivityRatio(t *testing.T) {
	rate := 8000
	// One voiced frame out of many stays under the activity ratio.
	samples := append(tone(0.03, rate, 0.5), make([]float64, rate)...)

	det, err := NewEnergy(0).Classify(samples, rate)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if det.HasSpeech {
		t.Error("HasSpeech = true for a single voiced frame, want false")
	}
}

func TestEnergyClassifyEmpty(t *testing.T) {
	det, err := NewEnergy(0).Classify(nil, 8000)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if det.HasSpeech {
		t.Error("HasSpeech = true for empty input, want false")
	}
}

func TestEnergyClassifyInvalidRate(t *testing.T) {
	if _, err := NewEnergy(0).Classify([]float64{0.1}, 0); err == nil {
		t.Error("Classify() error = nil for zero sample rate")
	}
}

func TestEnergyCustomThreshold(t *testing.T) {
	quiet := tone(1, 8000, 0.005)

	if det, _ := NewEnergy(0).Classify(quiet, 8000); det.HasSpeech {
		t.Error("default threshold: HasSpeech = true for quiet tone, want false")
	}
	if det, _ := NewEnergy(0.001).Classify(quiet, 8000); !det.HasSpeech {
		t.Error("lowered threshold: HasSpeech = false for quiet tone, want true")
	}
}
