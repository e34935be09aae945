package ml

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"mandi/internal/adapters/config"
	"mandi/internal/dataset"
	"mandi/internal/domain/market"
	"mandi/pkg/errors"
	"mandi/pkg/logger"

	"mandi/internal/ml/gbdt"
)

// Trainer fits the boosted-tree price regressor on an engineered table
type Trainer struct {
	cfg config.TrainingConfig
	log *logger.Logger
}

// NewTrainer creates a trainer with the given hyperparameters
func NewTrainer(cfg config.TrainingConfig, log *logger.Logger) *Trainer {
	return &Trainer{cfg: cfg, log: log}
}

// TrainResult holds the fitted model and its test-split evaluation
type TrainResult struct {
	Model        *gbdt.Model
	SMAPE        float64
	TestMAE      float64
	ResidualMean float64
	ResidualStd  float64
	TrainRows    int
	TestRows     int
	Features     []string
}

// Train selects the numeric columns of the table, treats Price_Today as the
// regression target, splits 80/20 with a fixed seed, and fits with early
// stopping against the test split.
func (tr *Trainer) Train(t *dataset.Table) (*TrainResult, error) {
	t.InferNumericColumns()

	target := t.Col(market.ColPriceToday)
	if target == nil || !target.Numeric {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "target column %s missing or non-numeric", market.ColPriceToday)
	}

	var features []string
	for _, name := range t.NumericColumnNames() {
		if name != market.ColPriceToday {
			features = append(features, name)
		}
	}
	if len(features) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyDataset, "no numeric feature columns")
	}

	n := t.NumRows()
	if n < 10 {
		return nil, errors.Wrapf(errors.ErrEmptyDataset, "only %d rows available for training", n)
	}

	X := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(features))
		for j, name := range features {
			row[j] = t.Col(name).Nums[i]
		}
		X[i] = row
	}
	y := target.Nums

	trainIdx, testIdx := splitIndices(n, tr.cfg.TestFraction, tr.cfg.Seed)

	trainX, trainY := gather(X, y, trainIdx)
	testX, testY := gather(X, y, testIdx)

	tr.log.Infof("Training on %d rows, evaluating on %d (%d features)", len(trainY), len(testY), len(features))

	params := gbdt.Params{
		Rounds:              tr.cfg.Rounds,
		LearningRate:        tr.cfg.LearningRate,
		MaxDepth:            tr.cfg.MaxDepth,
		NumLeaves:           tr.cfg.NumLeaves,
		MinSamplesLeaf:      tr.cfg.MinSamplesLeaf,
		EarlyStoppingRounds: tr.cfg.EarlyStoppingRounds,
	}

	var lastMAE float64
	model, err := gbdt.Train(trainX, trainY, testX, testY, params, func(round int, mae float64) {
		lastMAE = mae
		if round%100 == 0 {
			tr.log.Debugf("Round %d: eval MAE %.4f", round, mae)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "fit price model")
	}
	model.FeatureNames = features

	preds := model.PredictBatch(testX)
	smape, err := SMAPE(testY, preds)
	if err != nil {
		return nil, errors.Wrap(err, "score test split")
	}

	residuals := make([]float64, len(testY))
	for i := range testY {
		residuals[i] = testY[i] - preds[i]
	}

	return &TrainResult{
		Model:        model,
		SMAPE:        smape,
		TestMAE:      lastMAE,
		ResidualMean: stat.Mean(residuals, nil),
		ResidualStd:  stat.StdDev(residuals, nil),
		TrainRows:    len(trainY),
		TestRows:     len(testY),
		Features:     features,
	}, nil
}

// splitIndices shuffles row indices with the given seed and carves off the
// trailing fraction as the test split.
func splitIndices(n int, testFraction float64, seed int64) (train, test []int) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	testSize := int(float64(n) * testFraction)
	if testSize < 1 {
		testSize = 1
	}
	return idx[:n-testSize], idx[n-testSize:]
}

func gather(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	gx := make([][]float64, len(idx))
	gy := make([]float64, len(idx))
	for j, i := range idx {
		gx[j] = X[i]
		gy[j] = y[i]
	}
	return gx, gy
}

// ExperimentRecord is one line of the experiment log, written per training
// run in place of a hosted tracking server.
type ExperimentRecord struct {
	RunID        string                `json:"run_id"`
	Timestamp    time.Time             `json:"timestamp"`
	Params       config.TrainingConfig `json:"params"`
	SMAPE        float64               `json:"smape"`
	TestMAE      float64               `json:"test_mae"`
	ResidualMean float64               `json:"residual_mean"`
	ResidualStd  float64               `json:"residual_std"`
	BestRound    int                   `json:"best_round"`
	TrainRows    int                   `json:"train_rows"`
	TestRows     int                   `json:"test_rows"`
	Features     []string              `json:"features"`
}

// LogExperiment appends the run record as a JSON line
func (tr *Trainer) LogExperiment(path string, res *TrainResult) error {
	rec := ExperimentRecord{
		RunID:        uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Params:       tr.cfg,
		SMAPE:        res.SMAPE,
		TestMAE:      res.TestMAE,
		ResidualMean: res.ResidualMean,
		ResidualStd:  res.ResidualStd,
		BestRound:    res.Model.BestRound,
		TrainRows:    res.TrainRows,
		TestRows:     res.TestRows,
		Features:     res.Features,
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	line, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal experiment record")
	}
	line = append(line, '\n')
	if _, err := f.Write(line); err != nil {
		return errors.Wrap(err, "append experiment record")
	}
	return nil
}
