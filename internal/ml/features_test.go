package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandi/internal/dataset"
	"mandi/internal/domain/market"
	"mandi/pkg/logger"
)

func engineeredTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl := dataset.New()
	require.NoError(t, tbl.AddTextColumn(market.ColCommodityGroup, []string{"Cereals", "Pulses"}))
	require.NoError(t, tbl.AddTextColumn(market.ColCommodity, []string{"Wheat", "Gram"}))
	require.NoError(t, tbl.AddTextColumn(market.ColVariety, []string{"Local", "FAQ"}))
	require.NoError(t, tbl.AddNumericColumn(market.ColMSP, []float64{2775, 5440}))
	require.NoError(t, tbl.AddNumericColumn(market.ColPriceToday, []float64{2100, 5600}))
	require.NoError(t, tbl.AddNumericColumn(market.ColPrice1DayAgo, []float64{2054, 5550}))
	require.NoError(t, tbl.AddNumericColumn(market.ColPrice2DaysAgo, []float64{1987, 5500}))
	return tbl
}

func TestEngineerFeatures_WorkedExample(t *testing.T) {
	tbl := engineeredTable(t)
	require.NoError(t, EngineerFeatures(tbl))

	// msp_premium is computed from Price_Today at feature time
	premium := tbl.Col(market.ColMSPPremium)
	require.NotNil(t, premium)
	assert.Equal(t, 2100.0-2775.0, premium.Nums[0])

	momentum := tbl.Col(market.ColPriceMomentum)
	require.NotNil(t, momentum)
	assert.InDelta(t, 0.03372, momentum.Nums[0], 1e-4)

	volatility := tbl.Col(market.ColPriceVolatility)
	require.NotNil(t, volatility)
	// Sample standard deviation over {2100, 2054, 1987}
	assert.InDelta(t, 56.82, volatility.Nums[0], 0.01)
}

func TestEngineerFeatures_SkipsWhenSourcesAbsent(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumericColumn(market.ColPriceToday, []float64{2100}))

	require.NoError(t, EngineerFeatures(tbl))

	assert.False(t, tbl.HasColumn(market.ColMSPPremium))
	assert.False(t, tbl.HasColumn(market.ColPriceMomentum))
	assert.False(t, tbl.HasColumn(market.ColPriceVolatility))
}

func TestEngineerFeatures_MomentumZeroDenominator(t *testing.T) {
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumericColumn(market.ColPriceToday, []float64{10}))
	require.NoError(t, tbl.AddNumericColumn(market.ColPrice1DayAgo, []float64{5}))
	require.NoError(t, tbl.AddNumericColumn(market.ColPrice2DaysAgo, []float64{0}))

	require.NoError(t, EngineerFeatures(tbl))

	v := tbl.Col(market.ColPriceMomentum).Nums[0]
	assert.False(t, math.IsNaN(v))
	assert.False(t, math.IsInf(v, 0))
}

func TestEncodeCategoricals(t *testing.T) {
	tbl := engineeredTable(t)

	bundle, err := EncodeCategoricals(tbl, logger.Get())
	require.NoError(t, err)
	require.Len(t, bundle.Encoders, 3)

	encoded := tbl.Col(market.ColCommodity + market.EncodedSuffix)
	require.NotNil(t, encoded)
	assert.True(t, encoded.Numeric)

	// Codes in the table must match the bundle's transform
	enc := bundle.Encoders[market.ColCommodity]
	code, ok := enc.Transform("Wheat")
	assert.True(t, ok)
	assert.Equal(t, float64(code), encoded.Nums[0])
}
