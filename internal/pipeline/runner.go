// Package pipeline implements the offline data pipeline: scrape, preprocess,
// feature engineering, and model training, composed as sequential steps.
package pipeline

import (
	"context"
	"time"

	"mandi/internal/metrics"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

// Step is one stage of the pipeline
type Step interface {
	Name() string
	Run(ctx context.Context) error
}

// optionalStep wraps a step whose failure should not abort the run.
// Used for scraping: a failed scrape degrades to the newest raw file
// already on disk.
type optionalStep struct {
	inner Step
	log   *logger.Logger
}

// Optional wraps a step so its errors are logged and swallowed
func Optional(s Step, log *logger.Logger) Step {
	return &optionalStep{inner: s, log: log}
}

func (s *optionalStep) Name() string { return s.inner.Name() }

func (s *optionalStep) Run(ctx context.Context) error {
	if err := s.inner.Run(ctx); err != nil {
		s.log.Warnf("Step %s failed, continuing with existing data: %v", s.inner.Name(), err)
		metrics.PipelineStepRuns.WithLabelValues(s.inner.Name(), "skipped").Inc()
		return nil
	}
	return nil
}

// Runner executes pipeline steps in order, stopping at the first hard failure
type Runner struct {
	steps []Step
	log   *logger.Logger
}

// NewRunner creates a runner over the given steps
func NewRunner(log *logger.Logger, steps ...Step) *Runner {
	return &Runner{steps: steps, log: log}
}

// Run executes each step in order
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()
	for _, step := range r.steps {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "pipeline cancelled")
		}

		r.log.Infof("Running step: %s", step.Name())
		stepStart := time.Now()

		err := step.Run(ctx)
		elapsed := time.Since(stepStart)
		metrics.PipelineStepDuration.WithLabelValues(step.Name()).Observe(elapsed.Seconds())
		metrics.PipelineLastRun.WithLabelValues(step.Name()).SetToCurrentTime()

		if err != nil {
			metrics.PipelineStepRuns.WithLabelValues(step.Name(), "error").Inc()
			return errors.Wrapf(err, "step %s", step.Name())
		}
		metrics.PipelineStepRuns.WithLabelValues(step.Name(), "success").Inc()
		r.log.Infof("Step %s finished in %s", step.Name(), elapsed.Round(time.Millisecond))
	}

	r.log.Infof("Pipeline finished in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
