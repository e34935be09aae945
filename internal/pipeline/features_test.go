package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandi/internal/adapters/config"
	"mandi/internal/dataset"
	"mandi/internal/domain/market"
	"mandi/internal/ml"
	"mandi/internal/ml/gbdt"
	"mandi/pkg/logger"
)

func writeCleanCSV(t *testing.T, path string, rows int) {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	commodities := []string{"Wheat", "Gram", "Rice"}

	var sb strings.Builder
	sb.WriteString(strings.Join(market.CanonicalColumns(), ","))
	sb.WriteString("\n")
	for i := 0; i < rows; i++ {
		c := commodities[i%len(commodities)]
		base := 1500 + rng.Float64()*4000
		sb.WriteString(fmt.Sprintf("Cereals,%s,Local,%.0f,%.0f,%.0f,%.0f,%d,%d,%d\n",
			c, base*0.9, base, base-rng.Float64()*60, base-rng.Float64()*120,
			50+i, 48+i, 46+i))
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
}

func TestFeatureStep_Run(t *testing.T) {
	dir := t.TempDir()
	cleanPath := filepath.Join(dir, "clean.csv")
	outPath := filepath.Join(dir, "training_data.csv")
	encoderPath := filepath.Join(dir, "encoders.gob")
	writeCleanCSV(t, cleanPath, 30)

	s := NewFeatureStep(cleanPath, outPath, encoderPath, logger.Get())
	require.NoError(t, s.Run(context.Background()))

	out, err := dataset.ReadCSV(outPath, 0)
	require.NoError(t, err)
	assert.True(t, out.HasColumn(market.ColMSPPremium))
	assert.True(t, out.HasColumn(market.ColPriceMomentum))
	assert.True(t, out.HasColumn(market.ColPriceVolatility))
	assert.True(t, out.HasColumn(market.ColCommodity+market.EncodedSuffix))
	assert.Equal(t, 30, out.NumRows())

	bundle, err := ml.LoadEncoderBundle(encoderPath)
	require.NoError(t, err)
	require.Len(t, bundle.Encoders, 3)

	// Encoders must cover the values seen in the clean data
	_, known := bundle.Encoders[market.ColCommodity].Transform("Wheat")
	assert.True(t, known)
}

func TestTrainStep_Run(t *testing.T) {
	dir := t.TempDir()
	cleanPath := filepath.Join(dir, "clean.csv")
	featuresPath := filepath.Join(dir, "training_data.csv")
	encoderPath := filepath.Join(dir, "encoders.gob")
	modelPath := filepath.Join(dir, "best_model.gob")
	logPath := filepath.Join(dir, "experiments.jsonl")
	writeCleanCSV(t, cleanPath, 80)

	require.NoError(t, NewFeatureStep(cleanPath, featuresPath, encoderPath, logger.Get()).Run(context.Background()))

	trainCfg := config.TrainingConfig{
		Rounds:              50,
		LearningRate:        0.1,
		MaxDepth:            4,
		NumLeaves:           15,
		MinSamplesLeaf:      2,
		EarlyStoppingRounds: 10,
		TestFraction:        0.2,
		Seed:                42,
	}
	s := NewTrainStep(featuresPath, modelPath, logPath, trainCfg, logger.Get())
	require.NoError(t, s.Run(context.Background()))

	model, err := gbdt.Load(modelPath)
	require.NoError(t, err)
	assert.NotEmpty(t, model.Trees)
	assert.Contains(t, model.FeatureNames, market.ColPrice1DayAgo)

	logData, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(logData), "run_id")
}
