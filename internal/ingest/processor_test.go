package ingest

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/snarg/verba/internal/audio"
	"github.com/snarg/verba/internal/database"
	"github.com/snarg/verba/internal/pipeline"
	"github.com/snarg/verba/internal/storage"
)

// stubRunner returns a canned result and records the buffer it was given.
type stubRunner struct {
	result  *pipeline.Result
	err     error
	lastBuf *pipeline.Buffer
}

func (r *stubRunner) Run(ctx context.Context, buf *pipeline.Buffer) (*pipeline.Result, error) {
	r.lastBuf = buf
	return r.result, r.err
}

// stubDB captures the inserted row.
type stubDB struct {
	row *database.TranscriptRow
}

func (db *stubDB) InsertTranscript(ctx context.Context, row *database.TranscriptRow) (int64, error) {
	db.row = row
	return 42, nil
}

func wavBytes(t *testing.T, seconds float64, rate int) []byte {
	t.Helper()
	n := int(seconds * float64(rate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.4 * math.Sin(2*math.Pi*300*float64(i)/float64(rate))
	}
	data, err := audio.Encode(samples, rate)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return data
}

func okResult() *pipeline.Result {
	return &pipeline.Result{
		Success:       true,
		FinalText:     "engine four responding",
		TotalDuration: 1,
		TotalChunks:   1,
		SpeechChunks:  1,
		Chunks: []pipeline.ChunkResult{
			{ChunkIndex: 0, Text: "engine four responding", Success: true},
		},
	}
}

func TestProcessUpload(t *testing.T) {
	runner := &stubRunner{result: okResult()}
	db := &stubDB{}
	store := storage.NewLocalStore(t.TempDir())
	p := &Processor{Pipe: runner, DB: db, Store: store, Model: "whisper-1", Language: "en", Log: zerolog.Nop()}

	id, res, err := p.ProcessUpload(context.Background(), "/incoming/dispatch.wav", wavBytes(t, 1, 8000), "upload")
	if err != nil {
		t.Fatalf("ProcessUpload() error = %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}
	if res.FinalText != "engine four responding" {
		t.Errorf("FinalText = %q", res.FinalText)
	}
	if runner.lastBuf == nil || runner.lastBuf.SampleRate != 8000 {
		t.Fatalf("pipeline got buffer %+v, want 8000 Hz audio", runner.lastBuf)
	}

	if db.row == nil {
		t.Fatal("nothing inserted")
	}
	if db.row.Filename != "dispatch.wav" {
		t.Errorf("row.Filename = %q, want dispatch.wav (basename only)", db.row.Filename)
	}
	if db.row.Model != "whisper-1" || db.row.Language != "en" {
		t.Errorf("row model/language = %q/%q", db.row.Model, db.row.Language)
	}
	if len(db.row.Chunks) == 0 {
		t.Error("row.Chunks is empty, want serialized chunk results")
	}

	if db.row.AudioPath == "" {
		t.Fatal("row.AudioPath empty, want archived key")
	}
	if !store.Exists(context.Background(), db.row.AudioPath) {
		t.Errorf("archived audio %q not found in store", db.row.AudioPath)
	}
}

func TestProcessUploadRejectsGarbage(t *testing.T) {
	p := &Processor{Pipe: &stubRunner{result: okResult()}, DB: &stubDB{}, Log: zerolog.Nop()}

	_, _, err := p.ProcessUpload(context.Background(), "garbage.wav", []byte("not audio at all"), "upload")
	if err == nil {
		t.Fatal("ProcessUpload() error = nil for non-WAV bytes")
	}
}

func TestProcessFileArchives(t *testing.T) {
	watchDir := t.TempDir()
	archiveDir := filepath.Join(t.TempDir(), "done")

	path := filepath.Join(watchDir, "call.wav")
	if err := os.WriteFile(path, wavBytes(t, 0.5, 8000), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	p := &Processor{Pipe: &stubRunner{result: okResult()}, DB: &stubDB{}, Log: zerolog.Nop()}
	id, _, err := p.ProcessFile(context.Background(), path, archiveDir)
	if err != nil {
		t.Fatalf("ProcessFile() error = %v", err)
	}
	if id != 42 {
		t.Errorf("id = %d, want 42", id)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("watched file still present, want moved to archive")
	}
	if _, err := os.Stat(filepath.Join(archiveDir, "call.wav")); err != nil {
		t.Errorf("archived file missing: %v", err)
	}
}
