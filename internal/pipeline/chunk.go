package pipeline

import "errors"

// ErrInvalidConfig is returned for configuration the pipeline cannot run with
// (overlap >= chunk duration, non-positive sample rate, and so on). It is a
// fatal, pipeline-level error: no partial work is performed.
var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// Chunk is a contiguous sub-range of a Buffer. Samples is a read-only slice
// into the parent buffer, so the buffer must outlive the chunk. HasSpeech and
// Confidence start zero-valued and are set exactly once by the classify stage;
// after that the chunk is read-only.
type Chunk struct {
	Index      int
	StartTime  float64 // seconds from buffer start
	EndTime    float64
	Samples    []float64
	HasSpeech  bool
	Confidence float64
}

// Duration returns the chunk length in seconds.
func (c *Chunk) Duration() float64 {
	return c.EndTime - c.StartTime
}

// ChunkResult is the outcome of one transcription attempt. ChunkIndex ties the
// result back to its chunk across the concurrent dispatch boundary. Error is
// non-empty iff Success is false; chunk-level failures never propagate as
// errors past the scheduler.
type ChunkResult struct {
	ChunkIndex     int     `json:"chunk_index"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	Text           string  `json:"text"`
	Success        bool    `json:"success"`
	Error          string  `json:"error,omitempty"`
	ProcessingTime float64 `json:"processing_time"` // seconds spent on this chunk alone
}

// Result is the final pipeline output. Success is false only when the run
// failed before producing a complete result (unreadable audio, cancellation);
// individual chunk failures leave Success true and are visible in Chunks.
type Result struct {
	Success        bool          `json:"success"`
	FinalText      string        `json:"final_text"`
	TotalDuration  float64       `json:"total_duration"` // audio seconds
	TotalChunks    int           `json:"total_chunks"`
	SpeechChunks   int           `json:"speech_chunks"`
	SilenceChunks  int           `json:"silence_chunks"`
	FailedChunks   int           `json:"failed_chunks"`
	Chunks         []ChunkResult `json:"chunks"`          // sorted by chunk_index
	ProcessingTime float64       `json:"processing_time"` // wall-clock seconds
	EngineTime     float64       `json:"engine_time"`     // cumulative per-chunk seconds
	SpeedRatio     float64       `json:"speed_ratio"`     // audio duration / wall clock; >1 is faster than realtime
	Efficiency     float64       `json:"efficiency"`      // fraction of audio skipped as silence
}
