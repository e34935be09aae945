package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mandi/internal/adapters/ai"
	"mandi/internal/adapters/config"
	"mandi/internal/adapters/errors/noop"
	"mandi/internal/adapters/errors/sentry"
	"mandi/internal/api"
	"mandi/internal/api/handlers"
	"mandi/internal/api/health"
	"mandi/internal/bootstrap"
	"mandi/internal/metrics"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := initLogger(cfg); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Register Prometheus metrics
	metrics.Init()

	// Load the pipeline artifacts (model, encoders, speech)
	artifacts := bootstrap.LoadArtifacts(cfg, log)

	// Assistant upstream clients
	vision := ai.NewOpenRouterClient(cfg.Assistant, log)
	synth := ai.NewElevenLabsClient(cfg.Assistant, log)

	server := api.NewServer(api.ServerConfig{
		Port:        cfg.Server.Port,
		ServiceName: cfg.App.Name,
		Version:     version,
	}, api.Handlers{
		Health:    health.New(log, artifacts, cfg.App.Name, version),
		Predict:   handlers.NewPredictHandler(artifacts.Predictor(log), log),
		Assistant: handlers.NewAssistantHandler(vision, artifacts.Transcriber, log),
		TTS:       handlers.NewTTSHandler(synth, log),
	}, log)

	log.Info("System initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown(ctx, cancel, server, errorTracker, log)
}

// loadConfig loads application configuration from environment
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// initLogger initializes structured logging
func initLogger(cfg *config.Config) error {
	return logger.Init(cfg.App.LogLevel, cfg.App.Env)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// waitForShutdown waits for a shutdown signal and performs graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, server *api.Server, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server shutdown error: %v", err)
	}

	if err := errorTracker.Flush(shutdownCtx); err != nil {
		log.Warnf("Error tracker flush failed: %v", err)
	}

	log.Info("Shutdown complete")
}
