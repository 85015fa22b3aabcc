package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/snarg/verba/internal/api"
	"github.com/snarg/verba/internal/config"
	"github.com/snarg/verba/internal/database"
	"github.com/snarg/verba/internal/engine"
	"github.com/snarg/verba/internal/ingest"
	"github.com/snarg/verba/internal/metrics"
	"github.com/snarg/verba/internal/pipeline"
	"github.com/snarg/verba/internal/storage"
	"github.com/snarg/verba/internal/vad"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "http-addr", "", "HTTP listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (trace..error)")
	flag.StringVar(&overrides.DatabaseURL, "database-url", "", "PostgreSQL connection URL")
	flag.StringVar(&overrides.AudioDir, "audio-dir", "", "audio archive directory")
	flag.StringVar(&overrides.WatchDir, "watch-dir", "", "directory to watch for WAV files")
	flag.Parse()

	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("verba starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	dbLog := log.With().Str("component", "database").Logger()
	db, err := database.Connect(ctx, cfg.DatabaseURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	// Audio archive (local disk or S3)
	store, err := storage.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize audio storage")
	}
	log.Info().Str("backend", store.Type()).Msg("audio storage ready")

	// Pipeline: energy VAD gate in front of a Whisper-compatible engine,
	// with engine latency observed at the composition boundary.
	whisper := engine.NewWhisperClient(
		cfg.WhisperURL, cfg.WhisperModel, cfg.WhisperAPIKey, cfg.Language, cfg.EngineTimeout)
	pipe, err := pipeline.New(pipeline.Options{
		Classifier:        vad.NewEnergy(cfg.SilenceThreshold),
		Engine:            metrics.InstrumentedEngine{Engine: engine.Text{Client: whisper}},
		ChunkDuration:     cfg.ChunkDuration,
		Overlap:           cfg.ChunkOverlap,
		Workers:           cfg.MaxWorkers,
		ChunkTimeout:      cfg.ChunkTimeout,
		MinSpeechDuration: cfg.MinSpeechDuration,
		Log:               log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid pipeline configuration")
	}

	processor := &ingest.Processor{
		Pipe:     pipe,
		DB:       db,
		Store:    store,
		Model:    cfg.WhisperModel,
		Language: cfg.Language,
		Log:      log.With().Str("component", "processor").Logger(),
	}
	prometheus.MustRegister(metrics.NewCollector(db.Pool, processor))

	// Optional drop-directory watcher
	deps := api.Deps{
		DB:       db,
		Uploader: processor,
		Version:  version,
		Start:    startTime,
	}
	if cfg.WatchDir != "" {
		fw := ingest.NewFileWatcher(processor, cfg.WatchDir, cfg.ArchiveDir, log)
		if err := fw.Start(ctx); err != nil {
			log.Fatal().Err(err).Str("dir", cfg.WatchDir).Msg("failed to start file watcher")
		}
		defer fw.Stop()
		deps.Watcher = fw
	}

	// HTTP server
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, deps, httpLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("verba stopped")
}
