package ml

import (
	"math"

	"mandi/internal/domain/market"
	"mandi/pkg/errors"
	"mandi/pkg/logger"

	"mandi/internal/ml/gbdt"
)

// PredictionInput is the raw payload for a price prediction
type PredictionInput struct {
	MSP            float64
	Price1DayAgo   float64
	Price2DaysAgo  float64
	ArrivalToday   float64
	Arrival1DayAgo float64
	Arrival2DayAgo float64

	CommodityGroup string
	Commodity      string
	Variety        string
}

// Prediction is the model output plus the trend versus the latest known price
type Prediction struct {
	Price float64
	Trend string
}

// Trend labels
const (
	TrendUp   = "UP"
	TrendDown = "DOWN"
)

// Predictor runs the persisted price model with the persisted encoders.
// Both artifacts are read-only after construction.
type Predictor struct {
	model    *gbdt.Model
	encoders *EncoderBundle
	log      *logger.Logger
}

// NewPredictor creates a predictor over loaded artifacts
func NewPredictor(model *gbdt.Model, encoders *EncoderBundle, log *logger.Logger) *Predictor {
	return &Predictor{model: model, encoders: encoders, log: log}
}

// Predict recomputes the serving-time features, applies the encoders and runs
// the model.
//
// The serving-time feature definitions intentionally reproduce the source
// system: msp_premium and price_volatility are derived from the lag prices
// rather than Price_Today, which differs from the training-time definitions.
// Changing them here would invalidate the persisted artifact.
func (p *Predictor) Predict(in PredictionInput) (*Prediction, error) {
	if p.model == nil {
		return nil, errors.ErrModelNotLoaded
	}
	if p.encoders == nil {
		return nil, errors.ErrEncodersNotLoaded
	}

	values := map[string]float64{
		market.ColMSP:            in.MSP,
		market.ColPrice1DayAgo:   in.Price1DayAgo,
		market.ColPrice2DaysAgo:  in.Price2DaysAgo,
		market.ColArrivalToday:   in.ArrivalToday,
		market.ColArrival1DayAgo: in.Arrival1DayAgo,
		market.ColArrival2DayAgo: in.Arrival2DayAgo,
	}

	values[market.ColMSPPremium] = in.Price1DayAgo - in.MSP
	values[market.ColPriceMomentum] = (in.Price1DayAgo - in.Price2DaysAgo) / (in.Price2DaysAgo + momentumEpsilon)

	volatility := PriceVolatility(in.Price1DayAgo, in.Price2DaysAgo)
	if math.IsNaN(volatility) {
		volatility = 0
	}
	values[market.ColPriceVolatility] = volatility

	categories := map[string]string{
		market.ColCommodityGroup: in.CommodityGroup,
		market.ColCommodity:      in.Commodity,
		market.ColVariety:        in.Variety,
	}
	for col, raw := range categories {
		if raw == "" {
			raw = "Unknown"
		}
		code := 0
		if enc, found := p.encoders.Encoders[col]; found {
			var known bool
			code, known = enc.Transform(raw)
			if !known {
				p.log.Debugf("Unseen %s value %q, encoding as 0", col, raw)
			}
		}
		values[col+market.EncodedSuffix] = float64(code)
	}

	x := make([]float64, len(p.model.FeatureNames))
	for i, name := range p.model.FeatureNames {
		v, found := values[name]
		if !found {
			return nil, errors.Wrapf(errors.ErrInternal, "model expects unknown feature %s", name)
		}
		x[i] = v
	}

	price := p.model.Predict(x)

	trend := TrendDown
	if price > in.Price1DayAgo {
		trend = TrendUp
	}

	return &Prediction{Price: price, Trend: trend}, nil
}
