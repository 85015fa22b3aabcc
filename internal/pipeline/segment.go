package pipeline

import (
	"fmt"
	"math"
)

const (
	// boundarySearchSeconds is how far around a naive cut point the segmenter
	// looks for a quieter boundary.
	boundarySearchSeconds = 2.0

	// energyWindowSeconds is the short-window RMS size used when scoring
	// candidate boundaries.
	energyWindowSeconds = 0.1

	// quietFraction: a candidate boundary is only taken when its window RMS is
	// below this fraction of the search region's average energy.
	quietFraction = 0.3
)

// Segmenter splits a buffer into bounded-duration chunks, preferring cut
// points that fall in quiet spots so words are not truncated mid-utterance.
type Segmenter struct {
	ChunkDuration   float64 // target seconds per chunk
	OverlapDuration float64 // seconds shared with the previous chunk
}

// Segment partitions the buffer into chunks of ChunkDuration seconds,
// advancing by ChunkDuration-OverlapDuration each step. The final chunk may be
// shorter and is never padded. An empty buffer yields no chunks; a buffer
// shorter than ChunkDuration yields exactly one chunk.
func (s *Segmenter) Segment(buf *Buffer) ([]Chunk, error) {
	if s.ChunkDuration <= 0 {
		return nil, fmt.Errorf("%w: chunk duration must be positive, got %g", ErrInvalidConfig, s.ChunkDuration)
	}
	if s.OverlapDuration < 0 || s.OverlapDuration >= s.ChunkDuration {
		return nil, fmt.Errorf("%w: overlap %gs must be in [0, chunk duration %gs)", ErrInvalidConfig, s.OverlapDuration, s.ChunkDuration)
	}

	total := len(buf.Samples)
	if total == 0 {
		return nil, nil
	}

	rate := float64(buf.SampleRate)
	chunkSamples := int(s.ChunkDuration * rate)
	overlapSamples := int(s.OverlapDuration * rate)
	// Durations that pass the seconds-level checks can still truncate to a
	// zero-sample chunk or a zero-sample stride at this rate, which would stall
	// the loop below.
	if chunkSamples < 1 || chunkSamples-overlapSamples < 1 {
		return nil, fmt.Errorf("%w: chunk %gs with overlap %gs at %dHz leaves no samples to advance by",
			ErrInvalidConfig, s.ChunkDuration, s.OverlapDuration, buf.SampleRate)
	}

	var chunks []Chunk
	pos := 0
	for pos < total {
		start := pos
		end := start + chunkSamples
		final := end >= total
		if final {
			end = total
		}

		// Only refine boundaries of full-length interior chunks; a chunk that
		// is already short from refinement upstream keeps its naive cut.
		if !final && float64(end-start)/rate >= s.ChunkDuration*0.8 {
			if refined, ok := s.refineBoundary(buf, end); ok && refined > start+overlapSamples {
				end = refined
				final = end >= total
			}
		}

		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			StartTime: float64(start) / rate,
			EndTime:   float64(end) / rate,
			Samples:   buf.Samples[start:end],
		})

		if final {
			break
		}
		pos = end - overlapSamples
	}

	return chunks, nil
}

// refineBoundary searches ±boundarySearchSeconds around the naive cut for the
// locally quietest short window. Returns the refined sample offset and whether
// a sufficiently quiet point was found. Purely a heuristic: when nothing
// stands out, the naive boundary stays.
func (s *Segmenter) refineBoundary(buf *Buffer, naiveEnd int) (int, bool) {
	rate := float64(buf.SampleRate)
	searchRadius := int(boundarySearchSeconds * rate)
	searchStart := naiveEnd - searchRadius
	if searchStart < 0 {
		searchStart = 0
	}
	searchEnd := naiveEnd + searchRadius
	if searchEnd > len(buf.Samples) {
		searchEnd = len(buf.Samples)
	}

	window := int(energyWindowSeconds * rate)
	if window <= 0 || searchEnd-searchStart < window {
		return 0, false
	}

	step := window / 2
	if step == 0 {
		step = 1
	}

	minOffset, minEnergy := -1, math.MaxFloat64
	var sum float64
	n := 0
	for off := searchStart; off+window <= searchEnd; off += step {
		e := rms(buf.Samples[off : off+window])
		sum += e
		n++
		if e < minEnergy {
			minEnergy = e
			minOffset = off
		}
	}
	if n == 0 || minOffset < 0 {
		return 0, false
	}

	avg := sum / float64(n)
	if minEnergy >= avg*quietFraction {
		return 0, false
	}
	return minOffset, true
}

// rms computes root-mean-square energy of a sample window.
func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
