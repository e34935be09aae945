package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandi/internal/domain/market"
	"mandi/internal/ml"
	"mandi/internal/ml/gbdt"
	"mandi/pkg/logger"
)

func testModel(base float64) *gbdt.Model {
	return &gbdt.Model{
		Base: base,
		FeatureNames: []string{
			market.ColMSP, market.ColPrice1DayAgo, market.ColPrice2DaysAgo,
			market.ColArrivalToday, market.ColArrival1DayAgo, market.ColArrival2DayAgo,
			market.ColMSPPremium, market.ColPriceMomentum, market.ColPriceVolatility,
			market.ColCommodityGroup + market.EncodedSuffix,
			market.ColCommodity + market.EncodedSuffix,
			market.ColVariety + market.EncodedSuffix,
		},
	}
}

func testEncoders() *ml.EncoderBundle {
	bundle := ml.NewEncoderBundle()
	bundle.Encoders[market.ColCommodityGroup] = ml.FitLabelEncoder([]string{"Cereals"})
	bundle.Encoders[market.ColCommodity] = ml.FitLabelEncoder([]string{"Wheat"})
	bundle.Encoders[market.ColVariety] = ml.FitLabelEncoder([]string{"Local"})
	return bundle
}

const validPredictBody = `{
	"Commodity_Group": "Cereals", "Commodity": "Wheat", "Variety": "Local",
	"MSP": 2775, "Price_1DayAgo": 2054, "Price_2DaysAgo": 1987,
	"Arrival_Today": 120, "Arrival_1DayAgo": 110, "Arrival_2DaysAgo": 95
}`

func TestPredictHandler_Success(t *testing.T) {
	h := NewPredictHandler(ml.NewPredictor(testModel(2100.456), testEncoders(), logger.Get()), logger.Get())

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(validPredictBody))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2100.46, resp.PredictedPriceTomorrow)
	assert.Equal(t, "UP", resp.Trend)
}

func TestPredictHandler_MissingField(t *testing.T) {
	h := NewPredictHandler(ml.NewPredictor(testModel(2100), testEncoders(), logger.Get()), logger.Get())

	body := `{"MSP": 2775, "Price_1DayAgo": 2054}`
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Price_2DaysAgo")
}

func TestPredictHandler_InvalidJSON(t *testing.T) {
	h := NewPredictHandler(ml.NewPredictor(testModel(2100), testEncoders(), logger.Get()), logger.Get())

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictHandler_ModelNotLoaded(t *testing.T) {
	h := NewPredictHandler(ml.NewPredictor(nil, testEncoders(), logger.Get()), logger.Get())

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(validPredictBody))
	w := httptest.NewRecorder()
	h.Handle(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Model not loaded")
}

func TestPredictHandler_MethodNotAllowed(t *testing.T) {
	h := NewPredictHandler(ml.NewPredictor(testModel(2100), testEncoders(), logger.Get()), logger.Get())

	req := httptest.NewRequest(http.MethodGet, "/predict", nil)
	w := httptest.NewRecorder()
	h.Handle(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
