package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set required env vars for all subtests
	cleanup := setEnvs(t, map[string]string{
		"DATABASE_URL": "postgres://localhost/test",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.ChunkDuration != 15*time.Second {
			t.Errorf("ChunkDuration = %v, want 15s", cfg.ChunkDuration)
		}
		if cfg.ChunkOverlap != time.Second {
			t.Errorf("ChunkOverlap = %v, want 1s", cfg.ChunkOverlap)
		}
		if cfg.MaxWorkers != 2 {
			t.Errorf("MaxWorkers = %d, want 2", cfg.MaxWorkers)
		}
		if cfg.ChunkTimeout != 120*time.Second {
			t.Errorf("ChunkTimeout = %v, want 120s", cfg.ChunkTimeout)
		}
		if cfg.MinSpeechDuration != 500*time.Millisecond {
			t.Errorf("MinSpeechDuration = %v, want 500ms", cfg.MinSpeechDuration)
		}
		if cfg.SilenceThreshold != 0.01 {
			t.Errorf("SilenceThreshold = %g, want 0.01", cfg.SilenceThreshold)
		}
		if cfg.WhisperModel != "whisper-1" {
			t.Errorf("WhisperModel = %q, want whisper-1", cfg.WhisperModel)
		}
		if cfg.WatchDir != "" {
			t.Errorf("WatchDir = %q, want empty (watcher disabled)", cfg.WatchDir)
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:     "nonexistent.env",
			HTTPAddr:    ":9090",
			LogLevel:    "debug",
			DatabaseURL: "postgres://override/db",
			AudioDir:    "/tmp/audio",
			WatchDir:    "/tmp/inbox",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.DatabaseURL != "postgres://override/db" {
			t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
		}
		if cfg.AudioDir != "/tmp/audio" {
			t.Errorf("AudioDir = %q, want /tmp/audio", cfg.AudioDir)
		}
		if cfg.WatchDir != "/tmp/inbox" {
			t.Errorf("WatchDir = %q, want /tmp/inbox", cfg.WatchDir)
		}
	})

	t.Run("env_vars_read", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{
			"CHUNK_DURATION":    "20s",
			"MAX_WORKERS":       "4",
			"SILENCE_THRESHOLD": "0.02",
		})
		defer cleanup()

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.ChunkDuration != 20*time.Second {
			t.Errorf("ChunkDuration = %v, want 20s", cfg.ChunkDuration)
		}
		if cfg.MaxWorkers != 4 {
			t.Errorf("MaxWorkers = %d, want 4", cfg.MaxWorkers)
		}
		if cfg.SilenceThreshold != 0.02 {
			t.Errorf("SilenceThreshold = %g, want 0.02", cfg.SilenceThreshold)
		}
	})

	t.Run("empty_overrides_use_env", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.DatabaseURL != "postgres://localhost/test" {
			t.Errorf("DatabaseURL = %q, want env value", cfg.DatabaseURL)
		}
	})
}

func TestLoadMissingRequired(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"DATABASE_URL": "",
	})
	defer cleanup()
	os.Unsetenv("DATABASE_URL")

	_, err := Load(Overrides{EnvFile: "nonexistent.env"})
	if err == nil {
		t.Error("expected error when required env vars are missing")
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
