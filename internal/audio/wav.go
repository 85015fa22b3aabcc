// Package audio converts between RIFF/WAV files and the normalized sample
// buffers the pipeline operates on.
package audio

import (
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"

	"github.com/snarg/verba/internal/pipeline"
)

// LoadError reports an unreadable or unsupported input file. It wraps the
// underlying decode error when one exists.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a PCM WAV file into a normalized mono buffer. Multi-channel
// audio is mixed down by averaging; amplitudes are scaled to [-1, 1] from the
// file's bit depth.
func Load(path string) (*pipeline.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "open", Err: err}
	}
	defer f.Close()

	return Decode(f, path)
}

// Decode reads WAV data from r. The path is used only for error reporting.
func Decode(r io.ReadSeeker, path string) (*pipeline.Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, &LoadError{Path: path, Reason: "not a valid WAV file"}
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "decode PCM", Err: err}
	}
	if pcm.Format == nil || pcm.Format.SampleRate <= 0 {
		return nil, &LoadError{Path: path, Reason: "missing format header"}
	}

	channels := pcm.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	bitDepth := int(dec.BitDepth)
	if pcm.SourceBitDepth > 0 {
		bitDepth = pcm.SourceBitDepth
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(pcm.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(pcm.Data[i*channels+ch])
		}
		samples[i] = sum / float64(channels) / scale
	}

	buf, err := pipeline.NewBuffer(samples, pcm.Format.SampleRate)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "invalid sample rate", Err: err}
	}
	return buf, nil
}

// Encode renders normalized mono samples as an in-memory 16-bit PCM WAV file,
// the format every Whisper-compatible endpoint accepts.
func Encode(samples []float64, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("encode wav: sample rate must be positive, got %d", sampleRate)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}

	ws := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(ws, sampleRate, 16, 1, 1)
	if err := enc.Write(&gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return nil, fmt.Errorf("encode wav: write: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode wav: close: %w", err)
	}

	out, err := io.ReadAll(ws.Reader())
	if err != nil {
		return nil, fmt.Errorf("encode wav: read back: %w", err)
	}
	return out, nil
}
