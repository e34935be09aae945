package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"mandi/internal/dataset"
	"mandi/internal/domain/market"
	"mandi/pkg/logger"
)

// momentumEpsilon guards the price_momentum denominator against divide-by-zero
const momentumEpsilon = 1e-9

// EngineerFeatures appends the derived price columns to a cleaned table.
// Each column is only computed when its source columns are present.
func EngineerFeatures(t *dataset.Table) error {
	n := t.NumRows()

	if t.HasColumn(market.ColMSP) && t.HasColumn(market.ColPriceToday) {
		msp := t.Col(market.ColMSP).Nums
		today := t.Col(market.ColPriceToday).Nums
		premium := make([]float64, n)
		for i := 0; i < n; i++ {
			premium[i] = today[i] - msp[i]
		}
		if err := t.AddNumericColumn(market.ColMSPPremium, premium); err != nil {
			return err
		}
	}

	if t.HasColumn(market.ColPrice1DayAgo) && t.HasColumn(market.ColPrice2DaysAgo) {
		p1 := t.Col(market.ColPrice1DayAgo).Nums
		p2 := t.Col(market.ColPrice2DaysAgo).Nums
		momentum := make([]float64, n)
		for i := 0; i < n; i++ {
			momentum[i] = (p1[i] - p2[i]) / (p2[i] + momentumEpsilon)
		}
		if err := t.AddNumericColumn(market.ColPriceMomentum, momentum); err != nil {
			return err
		}

		if t.HasColumn(market.ColPriceToday) {
			today := t.Col(market.ColPriceToday).Nums
			volatility := make([]float64, n)
			for i := 0; i < n; i++ {
				volatility[i] = PriceVolatility(today[i], p1[i], p2[i])
			}
			if err := t.AddNumericColumn(market.ColPriceVolatility, volatility); err != nil {
				return err
			}
		}
	}

	return nil
}

// PriceVolatility is the sample standard deviation of the recent price window
func PriceVolatility(prices ...float64) float64 {
	return stat.StdDev(prices, nil)
}

// EncodeCategoricals fits a label encoder per categorical column present in
// the table, appends the encoded integer columns, and returns the fitted
// bundle for persistence.
func EncodeCategoricals(t *dataset.Table, log *logger.Logger) (*EncoderBundle, error) {
	bundle := NewEncoderBundle()

	for _, col := range market.CategoricalColumns() {
		c := t.Col(col)
		if c == nil {
			continue
		}

		enc := FitLabelEncoder(c.Text)
		bundle.Encoders[col] = enc

		codes := make([]float64, len(c.Text))
		for i, v := range c.Text {
			code, _ := enc.Transform(v)
			codes[i] = float64(code)
		}
		if err := t.AddNumericColumn(col+market.EncodedSuffix, codes); err != nil {
			return nil, err
		}

		log.Debugf("Encoded %s: %d classes", col, len(enc.Classes))
	}

	return bundle, nil
}

// HasMissing reports whether any numeric column of the table still holds NaN
func HasMissing(t *dataset.Table) bool {
	for _, name := range t.NumericColumnNames() {
		for _, v := range t.Col(name).Nums {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}
