package pipeline

import (
	"context"

	"mandi/internal/adapters/config"
	"mandi/internal/dataset"
	"mandi/internal/metrics"
	"mandi/internal/ml"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

// TrainStep fits the price model on the engineered table and persists it
type TrainStep struct {
	featuresPath  string
	modelPath     string
	experimentLog string
	trainer       *ml.Trainer
	log           *logger.Logger
}

// NewTrainStep creates a training step
func NewTrainStep(featuresPath, modelPath, experimentLog string, cfg config.TrainingConfig, log *logger.Logger) *TrainStep {
	return &TrainStep{
		featuresPath:  featuresPath,
		modelPath:     modelPath,
		experimentLog: experimentLog,
		trainer:       ml.NewTrainer(cfg, log),
		log:           log.With("step", "train"),
	}
}

// Name implements Step
func (s *TrainStep) Name() string { return "train" }

// Run trains on the features table, records the run, and overwrites the
// model artifact
func (s *TrainStep) Run(ctx context.Context) error {
	t, err := dataset.ReadCSV(s.featuresPath, 0)
	if err != nil {
		return errors.Wrap(err, "read features csv")
	}

	res, err := s.trainer.Train(t)
	if err != nil {
		return err
	}

	s.log.Infof("Model trained: SMAPE %.2f%%, %d rounds, test MAE %.2f",
		res.SMAPE, res.Model.BestRound, res.TestMAE)
	metrics.TrainingSMAPE.Set(res.SMAPE)
	metrics.TrainingRounds.Set(float64(res.Model.BestRound))

	if err := s.trainer.LogExperiment(s.experimentLog, res); err != nil {
		// Losing a log line should not cost us the freshly trained model
		s.log.Warnf("Failed to append experiment record: %v", err)
	}

	if err := res.Model.Save(s.modelPath); err != nil {
		return errors.Wrap(err, "save model")
	}
	s.log.Infof("Model saved to %s", s.modelPath)
	return nil
}
