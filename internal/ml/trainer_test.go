package ml

import (
	"bufio"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandi/internal/adapters/config"
	"mandi/internal/dataset"
	"mandi/internal/domain/market"
	"mandi/pkg/logger"
)

func testTrainingConfig() config.TrainingConfig {
	return config.TrainingConfig{
		Rounds:              100,
		LearningRate:        0.1,
		MaxDepth:            5,
		NumLeaves:           15,
		MinSamplesLeaf:      2,
		EarlyStoppingRounds: 20,
		TestFraction:        0.2,
		Seed:                42,
	}
}

func syntheticFeatureTable(t *testing.T, n int) *dataset.Table {
	t.Helper()
	rng := rand.New(rand.NewSource(5))

	commodities := make([]string, n)
	msp := make([]float64, n)
	today := make([]float64, n)
	p1 := make([]float64, n)
	p2 := make([]float64, n)
	for i := 0; i < n; i++ {
		commodities[i] = "Wheat"
		base := 1500 + rng.Float64()*4000
		msp[i] = base * 0.9
		p2[i] = base + rng.NormFloat64()*20
		p1[i] = p2[i] + rng.NormFloat64()*30
		// Tomorrow's price trends with yesterday's
		today[i] = p1[i] + rng.NormFloat64()*15
	}

	tbl := dataset.New()
	require.NoError(t, tbl.AddTextColumn(market.ColCommodity, commodities))
	require.NoError(t, tbl.AddNumericColumn(market.ColMSP, msp))
	require.NoError(t, tbl.AddNumericColumn(market.ColPriceToday, today))
	require.NoError(t, tbl.AddNumericColumn(market.ColPrice1DayAgo, p1))
	require.NoError(t, tbl.AddNumericColumn(market.ColPrice2DaysAgo, p2))
	return tbl
}

func TestTrainer_Train(t *testing.T) {
	tbl := syntheticFeatureTable(t, 300)
	tr := NewTrainer(testTrainingConfig(), logger.Get())

	res, err := tr.Train(tbl)
	require.NoError(t, err)

	// Text columns and the target must not appear among features
	assert.NotContains(t, res.Features, market.ColPriceToday)
	assert.NotContains(t, res.Features, market.ColCommodity)
	assert.Contains(t, res.Features, market.ColPrice1DayAgo)

	// Prices hover in the thousands with small noise, so relative error
	// should be low for a model that learned anything
	assert.Less(t, res.SMAPE, 10.0)
	assert.Equal(t, 240, res.TrainRows)
	assert.Equal(t, 60, res.TestRows)
}

func TestTrainer_MissingTarget(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumericColumn(market.ColMSP, []float64{1, 2, 3}))

	tr := NewTrainer(testTrainingConfig(), logger.Get())
	_, err := tr.Train(tbl)
	assert.Error(t, err)
}

func TestTrainer_DeterministicSplit(t *testing.T) {
	tbl1 := syntheticFeatureTable(t, 120)
	tbl2 := syntheticFeatureTable(t, 120)

	tr := NewTrainer(testTrainingConfig(), logger.Get())

	res1, err := tr.Train(tbl1)
	require.NoError(t, err)
	res2, err := tr.Train(tbl2)
	require.NoError(t, err)

	// Same data, same seed: identical evaluation
	assert.Equal(t, res1.SMAPE, res2.SMAPE)
	assert.Equal(t, res1.Model.BestRound, res2.Model.BestRound)
}

func TestTrainer_LogExperiment(t *testing.T) {
	tbl := syntheticFeatureTable(t, 120)
	tr := NewTrainer(testTrainingConfig(), logger.Get())

	res, err := tr.Train(tbl)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "experiments.jsonl")
	require.NoError(t, tr.LogExperiment(path, res))
	require.NoError(t, tr.LogExperiment(path, res))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec ExperimentRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		assert.NotEmpty(t, rec.RunID)
		assert.Equal(t, res.SMAPE, rec.SMAPE)
		lines++
	}
	assert.Equal(t, 2, lines)
}
