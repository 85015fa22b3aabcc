package audio

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func sine(seconds float64, rate int, freq, amp float64) []float64 {
	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return samples
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rate := 8000
	in := sine(0.5, rate, 440, 0.6)

	data, err := Encode(in, rate)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Encode() produced no bytes")
	}

	buf, err := Decode(bytes.NewReader(data), "roundtrip.wav")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if buf.SampleRate != rate {
		t.Errorf("SampleRate = %d, want %d", buf.SampleRate, rate)
	}
	if len(buf.Samples) != len(in) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Samples), len(in))
	}
	// 16-bit quantization bounds the round-trip error.
	for i := range in {
		if diff := math.Abs(buf.Samples[i] - in[i]); diff > 0.001 {
			t.Fatalf("sample %d = %g, want %g (diff %g)", i, buf.Samples[i], in[i], diff)
		}
	}
}

func TestLoadFromDisk(t *testing.T) {
	rate := 16000
	in := sine(0.25, rate, 220, 0.4)
	data, err := Encode(in, rate)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "call.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	buf, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if buf.SampleRate != rate {
		t.Errorf("SampleRate = %d, want %d", buf.SampleRate, rate)
	}
	if math.Abs(buf.Duration()-0.25) > 0.001 {
		t.Errorf("Duration() = %g, want 0.25", buf.Duration())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.wav"))
	var le *LoadError
	if err == nil {
		t.Fatal("Load() error = nil, want *LoadError")
	}
	if !errors.As(err, &le) {
		t.Fatalf("Load() error = %T, want *LoadError", err)
	}
	if le.Reason != "open" {
		t.Errorf("LoadError.Reason = %q, want %q", le.Reason, "open")
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not audio")), "garbage.bin")
	if err == nil {
		t.Fatal("Decode() error = nil for garbage input")
	}
}

func TestEncodeClampsOutOfRange(t *testing.T) {
	data, err := Encode([]float64{2.0, -2.0, 0}, 8000)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	buf, err := Decode(bytes.NewReader(data), "clip.wav")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	for i, s := range buf.Samples {
		if s > 1 || s < -1 {
			t.Errorf("sample %d = %g, want within [-1, 1]", i, s)
		}
	}
}

func TestEncodeInvalidRate(t *testing.T) {
	if _, err := Encode([]float64{0}, 0); err == nil {
		t.Error("Encode() error = nil for zero sample rate")
	}
}
