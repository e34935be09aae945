// Command pipeline runs the offline data pipeline: scrape the daily
// Agmarknet report, clean it, engineer features, and retrain the price model.
//
// Usage:
//
//	pipeline                  # full run
//	pipeline -steps train     # retrain only
//	pipeline -steps preprocess,features,train
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mandi/internal/adapters/config"
	"mandi/internal/metrics"
	"mandi/internal/pipeline"
	"mandi/internal/scraper"
	"mandi/pkg/logger"
)

func main() {
	stepsFlag := flag.String("steps", "scrape,preprocess,features,train",
		"comma-separated pipeline steps to run")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	metrics.Init()

	steps, err := buildSteps(*stepsFlag, cfg, log)
	if err != nil {
		log.Fatalf("Invalid -steps value: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner := pipeline.NewRunner(log, steps...)
	if err := runner.Run(ctx); err != nil {
		log.Errorf("Pipeline failed: %v", err)
		os.Exit(1)
	}
}

// buildSteps resolves the requested step names in their canonical order
func buildSteps(list string, cfg *config.Config, log *logger.Logger) ([]pipeline.Step, error) {
	requested := make(map[string]bool)
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		switch name {
		case "scrape", "preprocess", "features", "train":
			requested[name] = true
		default:
			return nil, fmt.Errorf("unknown step %q", name)
		}
	}

	var steps []pipeline.Step
	if requested["scrape"] {
		// A failed scrape degrades to the newest raw file already on disk
		steps = append(steps, pipeline.Optional(
			scraper.New(cfg.Scraper, cfg.Paths.RawDir, log), log))
	}
	if requested["preprocess"] {
		steps = append(steps, pipeline.NewPreprocessor(cfg.Paths.RawDir, cfg.Paths.CleanCSV, log))
	}
	if requested["features"] {
		steps = append(steps, pipeline.NewFeatureStep(
			cfg.Paths.CleanCSV, cfg.Paths.FeaturesCSV, cfg.Paths.EncoderBundle, log))
	}
	if requested["train"] {
		steps = append(steps, pipeline.NewTrainStep(
			cfg.Paths.FeaturesCSV, cfg.Paths.ModelBundle, cfg.Paths.ExperimentLog, cfg.Training, log))
	}
	return steps, nil
}
