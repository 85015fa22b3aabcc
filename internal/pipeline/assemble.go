package pipeline

import "strings"

// AssemblyStats is the failure accounting for one assembly pass. Failed and
// empty-text chunks are skipped in the text output but still counted here.
type AssemblyStats struct {
	Processed  int
	Succeeded  int
	Failed     int
	EngineTime float64 // sum of per-chunk processing seconds
}

// Assemble concatenates the text of successful non-empty results in
// chunk-index order, joined by single spaces. Pure: it mutates nothing and
// yields identical output on repeated calls with the same input. The input is
// expected to be sorted by chunk index already (the scheduler's contract).
func Assemble(results []ChunkResult) (string, AssemblyStats) {
	var stats AssemblyStats
	parts := make([]string, 0, len(results))

	for _, r := range results {
		stats.Processed++
		stats.EngineTime += r.ProcessingTime
		if !r.Success {
			stats.Failed++
			continue
		}
		stats.Succeeded++
		if text := strings.TrimSpace(r.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), stats
}
