package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Detection is the fixed classifier output. SpeechSeconds reports how much of
// the chunk the classifier considered voiced; zero means the classifier does
// not measure it.
type Detection struct {
	HasSpeech     bool
	Confidence    float64 // in [0, 1]
	SpeechSeconds float64
}

// Classifier decides whether audio contains speech. Implementations must be
// callable concurrently with no shared mutable state between calls.
type Classifier interface {
	Classify(samples []float64, sampleRate int) (Detection, error)
}

// fallbackConfidence is assigned when a classifier call fails. The chunk is
// conservatively assumed to contain speech so audio is never silently dropped.
const fallbackConfidence = 0.3

// classifyChunks runs the classifier over every chunk, setting HasSpeech and
// Confidence exactly once per chunk. Calls are independent, so up to workers
// goroutines run concurrently. A classifier failure marks the chunk as speech
// with low confidence and the stage continues. Chunks whose detected speech
// falls below minSpeechSeconds are treated as silence regardless of the
// classifier's verdict. Returns the number of chunks actually classified;
// cancellation can leave trailing chunks untouched, and the caller must not
// mistake those for silence.
func classifyChunks(ctx context.Context, chunks []Chunk, cls Classifier, sampleRate, workers int, minSpeechSeconds float64, log zerolog.Logger) int {
	if workers < 1 {
		workers = 1
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	idx := make(chan int, len(chunks))
	for i := range chunks {
		idx <- i
	}
	close(idx)

	var classified atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				if ctx.Err() != nil {
					return
				}
				c := &chunks[i]
				det, err := cls.Classify(c.Samples, sampleRate)
				if err != nil {
					log.Warn().Err(err).Int("chunk", c.Index).Msg("classifier failed, assuming speech")
					c.HasSpeech = true
					c.Confidence = fallbackConfidence
					classified.Add(1)
					continue
				}
				if det.HasSpeech && det.SpeechSeconds > 0 && det.SpeechSeconds < minSpeechSeconds {
					det.HasSpeech = false
				}
				c.HasSpeech = det.HasSpeech
				c.Confidence = det.Confidence
				classified.Add(1)
			}
		}()
	}
	wg.Wait()
	return int(classified.Load())
}
