// Package ingest feeds audio into the pipeline from the two intake paths
// (HTTP upload and the filesystem watcher) and persists the results.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/verba/internal/audio"
	"github.com/snarg/verba/internal/database"
	"github.com/snarg/verba/internal/metrics"
	"github.com/snarg/verba/internal/pipeline"
	"github.com/snarg/verba/internal/storage"
)

// Runner is the pipeline surface the processor needs.
type Runner interface {
	Run(ctx context.Context, buf *pipeline.Buffer) (*pipeline.Result, error)
}

// TranscriptStore is the database surface the processor needs.
type TranscriptStore interface {
	InsertTranscript(ctx context.Context, row *database.TranscriptRow) (int64, error)
}

// Processor is the shared intake path: decode, run the pipeline, persist the
// transcript, archive the original audio. Both the upload handler and the
// file watcher go through it, so counters and persistence behave identically.
type Processor struct {
	Pipe     Runner
	DB       TranscriptStore
	Store    storage.AudioStore
	Model    string
	Language string
	Log      zerolog.Logger

	activeRuns  atomic.Int64
	queuedFiles atomic.Int64
}

// ActiveRuns implements metrics.RunStats.
func (p *Processor) ActiveRuns() int { return int(p.activeRuns.Load()) }

// QueuedFiles implements metrics.RunStats.
func (p *Processor) QueuedFiles() int { return int(p.queuedFiles.Load()) }

// ProcessUpload decodes WAV bytes, runs the pipeline, and persists both the
// transcript and the original audio. Returns the transcript id alongside the
// pipeline result. Chunk-level failures do not fail the call; decode and
// database errors do.
func (p *Processor) ProcessUpload(ctx context.Context, filename string, data []byte, source string) (int64, *pipeline.Result, error) {
	buf, err := audio.Decode(bytes.NewReader(data), filename)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("decode_error", source).Inc()
		return 0, nil, err
	}

	p.activeRuns.Add(1)
	defer p.activeRuns.Add(-1)

	metrics.AudioSecondsTotal.Add(buf.Duration())

	res, err := p.Pipe.Run(ctx, buf)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error", source).Inc()
		return 0, nil, fmt.Errorf("pipeline run: %w", err)
	}
	p.countRun(res, source)

	chunksJSON, err := json.Marshal(res.Chunks)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal chunks: %w", err)
	}

	key := time.Now().UTC().Format("2006-01-02") + "/" + filepath.Base(filename)
	audioPath := ""
	if p.Store != nil {
		if err := p.Store.Save(ctx, key, data, "audio/wav"); err != nil {
			// Losing the original audio is not worth losing the transcript.
			p.Log.Warn().Err(err).Str("key", key).Msg("failed to archive audio")
		} else {
			audioPath = key
		}
	}

	id, err := p.DB.InsertTranscript(ctx, &database.TranscriptRow{
		Filename:       filepath.Base(filename),
		AudioPath:      audioPath,
		Success:        res.Success,
		FinalText:      res.FinalText,
		Language:       p.Language,
		Model:          p.Model,
		TotalDuration:  res.TotalDuration,
		TotalChunks:    res.TotalChunks,
		SpeechChunks:   res.SpeechChunks,
		SilenceChunks:  res.SilenceChunks,
		FailedChunks:   res.FailedChunks,
		ProcessingTime: res.ProcessingTime,
		EngineTime:     res.EngineTime,
		SpeedRatio:     res.SpeedRatio,
		Efficiency:     res.Efficiency,
		Chunks:         chunksJSON,
	})
	if err != nil {
		return 0, nil, err
	}

	p.Log.Info().
		Int64("transcript_id", id).
		Str("filename", filepath.Base(filename)).
		Str("source", source).
		Int("failed_chunks", res.FailedChunks).
		Msg("transcript stored")

	return id, res, nil
}

// ProcessFile runs a file the watcher picked up, then moves it into
// archiveDir when one is configured so the watch directory drains.
func (p *Processor) ProcessFile(ctx context.Context, path, archiveDir string) (int64, *pipeline.Result, error) {
	p.queuedFiles.Add(1)
	defer p.queuedFiles.Add(-1)

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", path, err)
	}

	id, res, err := p.ProcessUpload(ctx, path, data, "watcher")
	if err != nil {
		return 0, nil, err
	}

	if archiveDir != "" {
		dest := filepath.Join(archiveDir, filepath.Base(path))
		if err := os.MkdirAll(archiveDir, 0o755); err == nil {
			err = os.Rename(path, dest)
		}
		if err != nil {
			p.Log.Warn().Err(err).Str("path", path).Msg("failed to archive watched file")
		}
	}

	return id, res, nil
}

func (p *Processor) countRun(res *pipeline.Result, source string) {
	outcome := "ok"
	switch {
	case !res.Success:
		outcome = "cancelled"
	case res.FailedChunks > 0:
		outcome = "partial"
	}
	metrics.RunsTotal.WithLabelValues(outcome, source).Inc()

	transcribed := res.SpeechChunks - res.FailedChunks
	if transcribed > 0 {
		metrics.ChunksTotal.WithLabelValues("transcribed").Add(float64(transcribed))
	}
	if res.SilenceChunks > 0 {
		metrics.ChunksTotal.WithLabelValues("skipped_silence").Add(float64(res.SilenceChunks))
	}
	if res.FailedChunks > 0 {
		metrics.ChunksTotal.WithLabelValues("failed").Add(float64(res.FailedChunks))
	}
}
