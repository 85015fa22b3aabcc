package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Engine is the speech-to-text collaborator. Implementations must be safe for
// concurrent calls from multiple workers.
type Engine interface {
	Transcribe(ctx context.Context, samples []float64, sampleRate int) (string, error)
}

// Scheduler dispatches speech-bearing chunks to the engine, sequentially or
// across a bounded worker pool, and returns results in chunk-index order.
type Scheduler struct {
	Engine     Engine
	Workers    int           // <=1 means strictly sequential, in index order
	Timeout    time.Duration // per-chunk engine call bound; 0 disables
	SampleRate int
	Log        zerolog.Logger
}

// Dispatch filters out silence chunks and transcribes the rest. One chunk's
// failure or timeout produces a failed ChunkResult and affects no other chunk.
// Results complete in any order but are sorted by chunk index before return,
// so concurrency never leaks into the observable ordering. When ctx is
// cancelled, pending chunks are abandoned; results already collected stay
// valid and sorted.
func (s *Scheduler) Dispatch(ctx context.Context, chunks []Chunk) []ChunkResult {
	speech := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.HasSpeech {
			speech = append(speech, c)
		}
	}
	if len(speech) == 0 {
		return nil
	}

	s.Log.Debug().
		Int("speech_chunks", len(speech)).
		Int("skipped", len(chunks)-len(speech)).
		Int("workers", s.Workers).
		Msg("dispatching chunks")

	if s.Workers <= 1 {
		results := make([]ChunkResult, 0, len(speech))
		for _, c := range speech {
			if ctx.Err() != nil {
				break
			}
			results = append(results, s.transcribeOne(ctx, c))
		}
		return results
	}

	workers := s.Workers
	if workers > len(speech) {
		workers = len(speech)
	}

	jobs := make(chan Chunk)
	var mu sync.Mutex
	var results []ChunkResult
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				if ctx.Err() != nil {
					continue
				}
				r := s.transcribeOne(ctx, c)
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, c := range speech {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- c:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
	return results
}

// transcribeOne runs a single bounded engine call and captures any failure
// into the result rather than returning it.
func (s *Scheduler) transcribeOne(ctx context.Context, c Chunk) ChunkResult {
	start := time.Now()

	callCtx := ctx
	var cancel context.CancelFunc
	if s.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	text, err := s.Engine.Transcribe(callCtx, c.Samples, s.SampleRate)

	result := ChunkResult{
		ChunkIndex:     c.Index,
		StartTime:      c.StartTime,
		EndTime:        c.EndTime,
		ProcessingTime: time.Since(start).Seconds(),
	}

	switch {
	case err == nil:
		result.Success = true
		result.Text = text
	case errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded:
		result.Error = "timeout"
		s.Log.Warn().Int("chunk", c.Index).Dur("timeout", s.Timeout).Msg("engine call timed out")
	default:
		result.Error = err.Error()
		s.Log.Warn().Err(err).Int("chunk", c.Index).Msg("engine call failed")
	}
	return result
}
