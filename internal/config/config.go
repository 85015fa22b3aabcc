package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// Read timeout covers whole-file uploads, so it is generous.
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"300s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"300s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	// Pipeline geometry and scheduling.
	ChunkDuration     time.Duration `env:"CHUNK_DURATION" envDefault:"15s"`
	ChunkOverlap      time.Duration `env:"CHUNK_OVERLAP" envDefault:"1s"`
	MaxWorkers        int           `env:"MAX_WORKERS" envDefault:"2"`
	ChunkTimeout      time.Duration `env:"CHUNK_TIMEOUT" envDefault:"120s"`
	MinSpeechDuration time.Duration `env:"MIN_SPEECH_DURATION" envDefault:"500ms"`
	SilenceThreshold  float64       `env:"SILENCE_THRESHOLD" envDefault:"0.01"`

	// Speech-to-text backend.
	WhisperURL    string        `env:"WHISPER_URL" envDefault:"http://localhost:8000/v1/audio/transcriptions"`
	WhisperModel  string        `env:"WHISPER_MODEL" envDefault:"whisper-1"`
	WhisperAPIKey string        `env:"WHISPER_API_KEY"`
	Language      string        `env:"LANGUAGE" envDefault:"en"`
	EngineTimeout time.Duration `env:"ENGINE_TIMEOUT" envDefault:"120s"`

	// Audio intake. WatchDir empty disables the filesystem watcher.
	AudioDir   string `env:"AUDIO_DIR" envDefault:"./audio"`
	WatchDir   string `env:"WATCH_DIR"`
	ArchiveDir string `env:"ARCHIVE_DIR"`

	// Object storage. Bucket empty keeps audio on local disk only.
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	DatabaseURL string
	AudioDir    string
	WatchDir    string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.AudioDir != "" {
		cfg.AudioDir = overrides.AudioDir
	}
	if overrides.WatchDir != "" {
		cfg.WatchDir = overrides.WatchDir
	}

	return cfg, nil
}
