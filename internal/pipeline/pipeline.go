// Package pipeline implements Verba's chunked, VAD-gated transcription core:
// a buffer is split into bounded chunks, each chunk is classified for speech,
// speech-bearing chunks are dispatched to a transcription engine (optionally
// in parallel), and ordered text plus timing statistics are reassembled.
//
// The package holds no storage handles and no cross-run state; everything it
// accumulates is local to one Run and returned in the Result.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a Pipeline. Classifier and Engine are the external
// collaborators; both must be safe for concurrent calls.
type Options struct {
	Classifier Classifier
	Engine     Engine

	ChunkDuration     time.Duration // target chunk length, e.g. 15s
	Overlap           time.Duration // neighbor overlap, e.g. 1s
	Workers           int           // bounded engine parallelism, typically 2-4
	ChunkTimeout      time.Duration // per-chunk engine bound; 0 disables
	MinSpeechDuration time.Duration // detected speech below this counts as silence

	Log zerolog.Logger
}

// Pipeline is the top-level orchestrator: Segment → Classify → Schedule →
// Assemble. Safe for concurrent Run calls; each run keeps its own state.
type Pipeline struct {
	opts Options
	seg  Segmenter
	log  zerolog.Logger
}

// New validates the configuration and builds a pipeline. Configuration errors
// are fatal and wrap ErrInvalidConfig.
func New(opts Options) (*Pipeline, error) {
	if opts.Classifier == nil {
		return nil, fmt.Errorf("%w: classifier is required", ErrInvalidConfig)
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("%w: engine is required", ErrInvalidConfig)
	}
	if opts.ChunkDuration <= 0 {
		return nil, fmt.Errorf("%w: chunk duration must be positive", ErrInvalidConfig)
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.ChunkDuration {
		return nil, fmt.Errorf("%w: overlap %s must be in [0, chunk duration %s)", ErrInvalidConfig, opts.Overlap, opts.ChunkDuration)
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Pipeline{
		opts: opts,
		seg: Segmenter{
			ChunkDuration:   opts.ChunkDuration.Seconds(),
			OverlapDuration: opts.Overlap.Seconds(),
		},
		log: opts.Log.With().Str("component", "pipeline").Logger(),
	}, nil
}

// Run transcribes the buffer and returns a complete result. Only fatal
// conditions (bad buffer, cancellation before any work) return an error;
// per-chunk engine failures are reported inside the result. An empty buffer
// yields an empty successful result, not an error.
func (p *Pipeline) Run(ctx context.Context, buf *Buffer) (*Result, error) {
	start := time.Now()

	if buf == nil || buf.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: buffer with positive sample rate required", ErrInvalidConfig)
	}

	audioDuration := buf.Duration()
	log := p.log.With().Float64("audio_seconds", audioDuration).Logger()

	chunks, err := p.seg.Segment(buf)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		log.Debug().Msg("empty audio, nothing to transcribe")
		return &Result{Success: true, Chunks: []ChunkResult{}}, nil
	}
	log.Debug().Int("chunks", len(chunks)).Msg("segmented")

	classified := classifyChunks(ctx, chunks, p.opts.Classifier, buf.SampleRate, p.opts.Workers,
		p.opts.MinSpeechDuration.Seconds(), log)

	speechChunks := 0
	var speechSeconds float64
	for _, c := range chunks {
		if c.HasSpeech {
			speechChunks++
			speechSeconds += c.Duration()
		}
	}
	log.Debug().Int("speech_chunks", speechChunks).Int("silence_chunks", len(chunks)-speechChunks).Msg("classified")

	sched := Scheduler{
		Engine:     p.opts.Engine,
		Workers:    p.opts.Workers,
		Timeout:    p.opts.ChunkTimeout,
		SampleRate: buf.SampleRate,
		Log:        log,
	}
	results := sched.Dispatch(ctx, chunks)

	finalText, stats := Assemble(results)

	wall := time.Since(start).Seconds()
	res := &Result{
		Success:        true,
		FinalText:      finalText,
		TotalDuration:  audioDuration,
		TotalChunks:    len(chunks),
		SpeechChunks:   speechChunks,
		SilenceChunks:  len(chunks) - speechChunks,
		FailedChunks:   stats.Failed,
		Chunks:         results,
		ProcessingTime: wall,
		EngineTime:     stats.EngineTime,
	}
	if res.Chunks == nil {
		res.Chunks = []ChunkResult{}
	}
	if wall > 0 {
		res.SpeedRatio = audioDuration / wall
	}
	if audioDuration > 0 {
		res.Efficiency = 1 - speechSeconds/audioDuration
		if res.Efficiency < 0 {
			res.Efficiency = 0
		}
	}

	// A cancelled run with unclassified or untranscribed chunks must not claim
	// success; chunks the classifier never reached are not silence. The partial
	// results stay attached and sorted.
	if ctx.Err() != nil && (classified < len(chunks) || stats.Processed < speechChunks) {
		res.Success = false
	}

	log.Info().
		Bool("success", res.Success).
		Int("total_chunks", res.TotalChunks).
		Int("speech_chunks", res.SpeechChunks).
		Int("failed_chunks", res.FailedChunks).
		Float64("speed_ratio", res.SpeedRatio).
		Float64("efficiency", res.Efficiency).
		Msg("pipeline run complete")

	return res, nil
}
