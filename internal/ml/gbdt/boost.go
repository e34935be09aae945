package gbdt

import (
	"encoding/gob"
	"math"
	"os"
	"path/filepath"
	"time"

	"mandi/pkg/errors"
)

// Params are the boosting hyperparameters
type Params struct {
	Rounds              int
	LearningRate        float64
	MaxDepth            int
	NumLeaves           int
	MinSamplesLeaf      int
	EarlyStoppingRounds int
}

// Model is a trained boosted-tree regressor. Leaf values are stored already
// shrunk, so prediction is the base value plus the sum of tree outputs.
type Model struct {
	Base         float64
	Trees        []*Tree
	FeatureNames []string
	BestRound    int
	TrainedAt    time.Time
}

// Predict returns the model output for a single feature vector. The vector
// must be ordered as FeatureNames.
func (m *Model) Predict(x []float64) float64 {
	out := m.Base
	for _, t := range m.Trees {
		out += t.Predict(x)
	}
	return out
}

// PredictBatch predicts for each row of X
func (m *Model) PredictBatch(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = m.Predict(x)
	}
	return out
}

// EvalFunc observes per-round evaluation during training
type EvalFunc func(round int, evalMAE float64)

// Train fits a boosted regressor on (X, y) with early stopping against the
// evaluation set: training halts once eval MAE has not improved for
// EarlyStoppingRounds rounds, and the model is truncated to its best round.
func Train(X [][]float64, y []float64, evalX [][]float64, evalY []float64, params Params, onEval EvalFunc) (*Model, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "bad training shape: %d rows, %d targets", len(X), len(y))
	}
	if len(evalX) != len(evalY) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "bad eval shape: %d rows, %d targets", len(evalX), len(evalY))
	}
	if params.Rounds <= 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "rounds must be positive")
	}

	var base float64
	for _, v := range y {
		base += v
	}
	base /= float64(len(y))

	m := &Model{Base: base, TrainedAt: time.Now().UTC()}

	treeParams := TreeParams{
		MaxDepth:       params.MaxDepth,
		NumLeaves:      params.NumLeaves,
		MinSamplesLeaf: params.MinSamplesLeaf,
	}

	trainPred := make([]float64, len(y))
	for i := range trainPred {
		trainPred[i] = base
	}
	evalPred := make([]float64, len(evalY))
	for i := range evalPred {
		evalPred[i] = base
	}

	residuals := make([]float64, len(y))
	bestMAE := math.Inf(1)
	bestRound := 0
	sinceBest := 0

	for round := 1; round <= params.Rounds; round++ {
		for i := range y {
			residuals[i] = y[i] - trainPred[i]
		}

		tree := buildTree(X, residuals, treeParams, params.LearningRate)
		m.Trees = append(m.Trees, tree)

		for i, x := range X {
			trainPred[i] += tree.Predict(x)
		}

		if len(evalY) > 0 {
			var absSum float64
			for i, x := range evalX {
				evalPred[i] += tree.Predict(x)
				absSum += math.Abs(evalY[i] - evalPred[i])
			}
			mae := absSum / float64(len(evalY))

			if onEval != nil {
				onEval(round, mae)
			}

			if mae < bestMAE {
				bestMAE = mae
				bestRound = round
				sinceBest = 0
			} else {
				sinceBest++
				if params.EarlyStoppingRounds > 0 && sinceBest >= params.EarlyStoppingRounds {
					break
				}
			}
		} else {
			bestRound = round
		}
	}

	m.Trees = m.Trees[:bestRound]
	m.BestRound = bestRound
	return m, nil
}

// Save persists the model with gob, overwriting any prior artifact
func (m *Model) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() { _ = f.Close() }()

	if err := gob.NewEncoder(f).Encode(m); err != nil {
		return errors.Wrap(err, "encode model")
	}
	return nil
}

// Load reads a model persisted by Save
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, errors.Wrap(err, "decode model")
	}
	return &m, nil
}
