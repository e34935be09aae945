package gbdt

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRegression(rng *rand.Rand, n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := rng.Float64() * 10
		b := rng.Float64() * 10
		X[i] = []float64{a, b}
		y[i] = 3*a - 2*b + rng.NormFloat64()*0.1
	}
	return X, y
}

func testParams() Params {
	return Params{
		Rounds:              200,
		LearningRate:        0.1,
		MaxDepth:            4,
		NumLeaves:           15,
		MinSamplesLeaf:      2,
		EarlyStoppingRounds: 20,
	}
}

func TestTrain_LearnsLinearTarget(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	X, y := makeRegression(rng, 400)
	evalX, evalY := makeRegression(rng, 100)

	var lastMAE float64
	model, err := Train(X, y, evalX, evalY, testParams(), func(round int, mae float64) {
		lastMAE = mae
	})
	require.NoError(t, err)
	require.NotEmpty(t, model.Trees)

	// MAE on held-out data should be far below the trivial mean predictor
	var baseMAE float64
	for i := range evalY {
		baseMAE += math.Abs(evalY[i] - model.Base)
	}
	baseMAE /= float64(len(evalY))

	assert.Less(t, lastMAE, baseMAE/2)
}

func TestTrain_EarlyStoppingTruncates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	X, y := makeRegression(rng, 200)
	evalX, evalY := makeRegression(rng, 50)

	params := testParams()
	params.Rounds = 1000

	model, err := Train(X, y, evalX, evalY, params, nil)
	require.NoError(t, err)

	// Early stopping must have fired well before the round budget
	assert.Less(t, len(model.Trees), params.Rounds)
	assert.Equal(t, model.BestRound, len(model.Trees))
}

func TestTrain_ConstantTarget(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	y := []float64{7, 7, 7, 7, 7, 7}

	model, err := Train(X, y, X, y, testParams(), nil)
	require.NoError(t, err)

	assert.InDelta(t, 7.0, model.Predict([]float64{3.5}), 1e-9)
}

func TestTrain_BadShapes(t *testing.T) {
	_, err := Train(nil, nil, nil, nil, testParams(), nil)
	assert.Error(t, err)

	_, err = Train([][]float64{{1}}, []float64{1, 2}, nil, nil, testParams(), nil)
	assert.Error(t, err)
}

func TestModel_SaveLoadRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	X, y := makeRegression(rng, 150)

	model, err := Train(X, y, X, y, testParams(), nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, model.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	probe := []float64{4.2, 1.3}
	assert.Equal(t, model.Predict(probe), loaded.Predict(probe))
	assert.Equal(t, model.BestRound, loaded.BestRound)
}

func TestTree_PredictRouting(t *testing.T) {
	tree := &Tree{Nodes: []Node{
		{Feature: 0, Threshold: 5, Left: 1, Right: 2},
		{Leaf: true, Value: -1, Left: -1, Right: -1},
		{Leaf: true, Value: 1, Left: -1, Right: -1},
	}}

	assert.Equal(t, -1.0, tree.Predict([]float64{4}))
	assert.Equal(t, 1.0, tree.Predict([]float64{6}))
}
