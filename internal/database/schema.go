package database

import "context"

const schemaSQL = `
CREATE TABLE transcripts (
    id              BIGSERIAL PRIMARY KEY,
    filename        TEXT NOT NULL,
    audio_path      TEXT,
    success         BOOLEAN NOT NULL DEFAULT true,
    final_text      TEXT NOT NULL DEFAULT '',
    language        TEXT,
    model           TEXT,
    total_duration  DOUBLE PRECISION NOT NULL DEFAULT 0,
    total_chunks    INTEGER NOT NULL DEFAULT 0,
    speech_chunks   INTEGER NOT NULL DEFAULT 0,
    silence_chunks  INTEGER NOT NULL DEFAULT 0,
    failed_chunks   INTEGER NOT NULL DEFAULT 0,
    processing_time DOUBLE PRECISION NOT NULL DEFAULT 0,
    engine_time     DOUBLE PRECISION NOT NULL DEFAULT 0,
    speed_ratio     DOUBLE PRECISION NOT NULL DEFAULT 0,
    efficiency      DOUBLE PRECISION NOT NULL DEFAULT 0,
    chunks          JSONB,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX idx_transcripts_created_at ON transcripts (created_at DESC);
CREATE INDEX idx_transcripts_text_fts ON transcripts USING gin (to_tsvector('english', final_text));
`

// InitSchema applies the schema on a fresh database. It checks whether the
// "transcripts" table exists as a proxy for whether the schema has been
// loaded. If present, it's a no-op.
func (db *DB) InitSchema(ctx context.Context) error {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT FROM pg_tables WHERE schemaname = 'public' AND tablename = 'transcripts')`,
	).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		db.log.Debug().Msg("schema already initialized, skipping")
		return nil
	}

	db.log.Info().Msg("fresh database detected, applying schema")
	if _, err := db.Pool.Exec(ctx, schemaSQL); err != nil {
		return err
	}
	db.log.Info().Msg("schema applied successfully")
	return nil
}
