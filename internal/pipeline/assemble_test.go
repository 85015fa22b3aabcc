package pipeline

import "testing"

func TestAssemble(t *testing.T) {
	results := []ChunkResult{
		{ChunkIndex: 0, Success: true, Text: "dispatch to all units", ProcessingTime: 1.5},
		{ChunkIndex: 1, Success: true, Text: "  "},
		{ChunkIndex: 2, Success: false, Error: "timeout", ProcessingTime: 2},
		{ChunkIndex: 3, Success: true, Text: " copy that "},
	}

	text, stats := Assemble(results)
	if want := "dispatch to all units copy that"; text != want {
		t.Errorf("Assemble() text = %q, want %q", text, want)
	}
	if stats.Processed != 4 {
		t.Errorf("Processed = %d, want 4", stats.Processed)
	}
	if stats.Succeeded != 3 {
		t.Errorf("Succeeded = %d, want 3", stats.Succeeded)
	}
	if stats.Failed != 1 {
		t.Errorf("Failed = %d, want 1", stats.Failed)
	}
	if stats.EngineTime != 3.5 {
		t.Errorf("EngineTime = %g, want 3.5", stats.EngineTime)
	}
}

func TestAssembleIsIdempotent(t *testing.T) {
	results := []ChunkResult{
		{ChunkIndex: 0, Success: true, Text: "alpha"},
		{ChunkIndex: 1, Success: true, Text: "bravo"},
	}

	first, _ := Assemble(results)
	second, _ := Assemble(results)
	if first != second {
		t.Errorf("repeated Assemble() differs: %q vs %q", first, second)
	}
	if results[0].Text != "alpha" || results[1].Text != "bravo" {
		t.Error("Assemble() mutated its input")
	}
}

func TestAssembleEmpty(t *testing.T) {
	text, stats := Assemble(nil)
	if text != "" {
		t.Errorf("Assemble(nil) text = %q, want empty", text)
	}
	if stats != (AssemblyStats{}) {
		t.Errorf("Assemble(nil) stats = %+v, want zero", stats)
	}
}
