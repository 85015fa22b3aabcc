package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a transcript id does not exist.
var ErrNotFound = errors.New("transcript not found")

// TranscriptRow is the input for inserting a transcript.
type TranscriptRow struct {
	Filename       string
	AudioPath      string
	Success        bool
	FinalText      string
	Language       string
	Model          string
	TotalDuration  float64
	TotalChunks    int
	SpeechChunks   int
	SilenceChunks  int
	FailedChunks   int
	ProcessingTime float64
	EngineTime     float64
	SpeedRatio     float64
	Efficiency     float64
	Chunks         json.RawMessage // per-chunk results
}

// TranscriptAPI is the transcript representation for API responses.
type TranscriptAPI struct {
	ID             int64           `json:"id"`
	Filename       string          `json:"filename"`
	AudioPath      string          `json:"audio_path,omitempty"`
	Success        bool            `json:"success"`
	FinalText      string          `json:"final_text"`
	Language       string          `json:"language,omitempty"`
	Model          string          `json:"model,omitempty"`
	TotalDuration  float64         `json:"total_duration"`
	TotalChunks    int             `json:"total_chunks"`
	SpeechChunks   int             `json:"speech_chunks"`
	SilenceChunks  int             `json:"silence_chunks"`
	FailedChunks   int             `json:"failed_chunks"`
	ProcessingTime float64         `json:"processing_time"`
	EngineTime     float64         `json:"engine_time"`
	SpeedRatio     float64         `json:"speed_ratio"`
	Efficiency     float64         `json:"efficiency"`
	Chunks         json.RawMessage `json:"chunks,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TranscriptFilter specifies filters for listing transcripts.
type TranscriptFilter struct {
	Search string // full-text query against final_text; empty skips the filter
	Limit  int
	Offset int
}

// InsertTranscript stores a completed pipeline run and returns its id.
func (db *DB) InsertTranscript(ctx context.Context, row *TranscriptRow) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO transcripts (
			filename, audio_path, success, final_text, language, model,
			total_duration, total_chunks, speech_chunks, silence_chunks, failed_chunks,
			processing_time, engine_time, speed_ratio, efficiency, chunks
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`,
		row.Filename, pqString(row.AudioPath), row.Success, row.FinalText,
		pqString(row.Language), pqString(row.Model),
		row.TotalDuration, row.TotalChunks, row.SpeechChunks, row.SilenceChunks, row.FailedChunks,
		row.ProcessingTime, row.EngineTime, row.SpeedRatio, row.Efficiency, row.Chunks,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transcript: %w", err)
	}
	return id, nil
}

// GetTranscript fetches one transcript by id, including chunk detail.
func (db *DB) GetTranscript(ctx context.Context, id int64) (*TranscriptAPI, error) {
	t := &TranscriptAPI{}
	var audioPath, language, model *string
	err := db.Pool.QueryRow(ctx, `
		SELECT id, filename, audio_path, success, final_text, language, model,
		       total_duration, total_chunks, speech_chunks, silence_chunks, failed_chunks,
		       processing_time, engine_time, speed_ratio, efficiency, chunks, created_at
		FROM transcripts WHERE id = $1
	`, id).Scan(
		&t.ID, &t.Filename, &audioPath, &t.Success, &t.FinalText, &language, &model,
		&t.TotalDuration, &t.TotalChunks, &t.SpeechChunks, &t.SilenceChunks, &t.FailedChunks,
		&t.ProcessingTime, &t.EngineTime, &t.SpeedRatio, &t.Efficiency, &t.Chunks, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	if audioPath != nil {
		t.AudioPath = *audioPath
	}
	if language != nil {
		t.Language = *language
	}
	if model != nil {
		t.Model = *model
	}
	return t, nil
}

// ListTranscripts returns a page of transcripts, newest first, without chunk
// detail. Total reports the unpaginated row count for the same filter.
func (db *DB) ListTranscripts(ctx context.Context, f TranscriptFilter) ([]TranscriptAPI, int, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, filename, success, final_text, language, model,
		       total_duration, total_chunks, speech_chunks, silence_chunks, failed_chunks,
		       processing_time, engine_time, speed_ratio, efficiency, created_at,
		       count(*) OVER () AS total
		FROM transcripts
		WHERE ($1::text IS NULL OR to_tsvector('english', final_text) @@ plainto_tsquery('english', $1))
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, pqString(f.Search), limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()

	var out []TranscriptAPI
	total := 0
	for rows.Next() {
		var t TranscriptAPI
		var language, model *string
		if err := rows.Scan(
			&t.ID, &t.Filename, &t.Success, &t.FinalText, &language, &model,
			&t.TotalDuration, &t.TotalChunks, &t.SpeechChunks, &t.SilenceChunks, &t.FailedChunks,
			&t.ProcessingTime, &t.EngineTime, &t.SpeedRatio, &t.Efficiency, &t.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan transcript: %w", err)
		}
		if language != nil {
			t.Language = *language
		}
		if model != nil {
			t.Model = *model
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// pqString converts an empty string to nil so PostgreSQL sees NULL and the
// ($1::text IS NULL OR ...) pattern skips the filter.
func pqString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
