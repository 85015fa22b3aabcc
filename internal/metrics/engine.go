package metrics

import (
	"context"
	"time"

	"github.com/snarg/verba/internal/pipeline"
)

// InstrumentedEngine wraps a pipeline engine and records per-call latency.
// The pipeline itself stays metrics-free; instrumentation happens at the
// composition boundary.
type InstrumentedEngine struct {
	Engine pipeline.Engine
}

func (e InstrumentedEngine) Transcribe(ctx context.Context, samples []float64, sampleRate int) (string, error) {
	start := time.Now()
	text, err := e.Engine.Transcribe(ctx, samples, sampleRate)
	EngineCallDuration.Observe(time.Since(start).Seconds())
	return text, err
}
