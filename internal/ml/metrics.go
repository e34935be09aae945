package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"mandi/pkg/errors"
)

// SMAPE computes the symmetric mean absolute percentage error over paired
// sequences, scaled to a percentage. Bounded in [0, 200] except when a pair
// sums to zero, which yields NaN; no special-casing is performed.
func SMAPE(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, errors.Wrapf(errors.ErrInvalidInput, "length mismatch: %d vs %d", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return 0, errors.Wrap(errors.ErrInvalidInput, "empty sequences")
	}

	ratios := make([]float64, len(actual))
	for i := range actual {
		ratios[i] = math.Abs(actual[i]-predicted[i]) / (math.Abs(actual[i]) + math.Abs(predicted[i]))
	}
	return stat.Mean(ratios, nil) * 100, nil
}

// MAPE computes the mean absolute percentage error. Yields Inf/NaN when an
// actual value is zero.
func MAPE(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, errors.Wrapf(errors.ErrInvalidInput, "length mismatch: %d vs %d", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return 0, errors.Wrap(errors.ErrInvalidInput, "empty sequences")
	}

	ratios := make([]float64, len(actual))
	for i := range actual {
		ratios[i] = math.Abs((actual[i] - predicted[i]) / actual[i])
	}
	return stat.Mean(ratios, nil) * 100, nil
}

// MAE computes the mean absolute error, the early-stopping criterion used
// during training.
func MAE(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, errors.Wrapf(errors.ErrInvalidInput, "length mismatch: %d vs %d", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return 0, errors.Wrap(errors.ErrInvalidInput, "empty sequences")
	}

	diffs := make([]float64, len(actual))
	for i := range actual {
		diffs[i] = math.Abs(actual[i] - predicted[i])
	}
	return stat.Mean(diffs, nil), nil
}
