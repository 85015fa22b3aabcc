// Package storage persists original audio files locally or in an
// S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/verba/internal/config"
)

// AudioStore abstracts audio file storage backends.
type AudioStore interface {
	// Save stores audio data. key format: {YYYY-MM-DD}/{filename}
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// LocalPath returns the local filesystem path if the file exists on disk.
	// Returns "" if not available locally.
	LocalPath(key string) string

	// URL returns a presigned URL for the audio file.
	// Returns "" for local-only backends.
	URL(ctx context.Context, key string) (string, error)

	// Open returns a reader for the audio file.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if an audio file exists in the backend.
	Exists(ctx context.Context, key string) bool

	// Type returns "local" or "s3".
	Type() string
}

// New creates an AudioStore based on config. An empty S3 bucket selects the
// local filesystem backend. Returns an error if S3 is configured but
// unreachable.
func New(cfg *config.Config, log zerolog.Logger) (AudioStore, error) {
	if cfg.S3Bucket == "" {
		return NewLocalStore(cfg.AudioDir), nil
	}

	s3store, err := NewS3Store(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("S3 init failed: %w", err)
	}

	// Startup validation: verify credentials and bucket access
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, fmt.Errorf("S3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.S3Bucket, cfg.S3Endpoint, err)
	}
	log.Info().Str("bucket", cfg.S3Bucket).Str("endpoint", cfg.S3Endpoint).Msg("S3 connection verified")

	return s3store, nil
}
