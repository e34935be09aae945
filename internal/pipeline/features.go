package pipeline

import (
	"context"

	"mandi/internal/dataset"
	"mandi/internal/domain/market"
	"mandi/internal/ml"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

// FeatureStep builds the engineered training table and persists the encoder
// bundle the API depends on.
type FeatureStep struct {
	cleanPath   string
	outPath     string
	encoderPath string
	log         *logger.Logger
}

// NewFeatureStep creates a feature-building step
func NewFeatureStep(cleanPath, outPath, encoderPath string, log *logger.Logger) *FeatureStep {
	return &FeatureStep{
		cleanPath:   cleanPath,
		outPath:     outPath,
		encoderPath: encoderPath,
		log:         log.With("step", "features"),
	}
}

// Name implements Step
func (s *FeatureStep) Name() string { return "features" }

// Run engineers features, fits and persists the encoders, and writes the
// training table
func (s *FeatureStep) Run(ctx context.Context) error {
	t, err := dataset.ReadCSV(s.cleanPath, 0)
	if err != nil {
		return errors.Wrap(err, "read clean csv")
	}

	for _, col := range market.NumericColumns() {
		t.CoerceNumeric(col)
	}

	if err := ml.EngineerFeatures(t); err != nil {
		return errors.Wrap(err, "engineer features")
	}

	bundle, err := ml.EncodeCategoricals(t, s.log)
	if err != nil {
		return errors.Wrap(err, "encode categoricals")
	}
	if err := bundle.Save(s.encoderPath); err != nil {
		return errors.Wrap(err, "save encoders")
	}
	s.log.Infof("Encoders saved to %s", s.encoderPath)

	// Lag features are undefined at the start of time-ordered data; those
	// rows carry NaN and are dropped here
	before := t.NumRows()
	t.DropRowsWithMissing()
	s.log.Infof("Training table: %d rows (%d dropped for missing values)", t.NumRows(), before-t.NumRows())

	if t.NumRows() == 0 {
		return errors.Wrap(errors.ErrEmptyDataset, "no complete rows after feature engineering")
	}

	if err := t.WriteCSV(s.outPath); err != nil {
		return errors.Wrap(err, "write training table")
	}
	s.log.Infof("Features ready: saved to %s", s.outPath)
	return nil
}
