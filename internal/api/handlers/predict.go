package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"mandi/internal/metrics"
	"mandi/internal/ml"
	"mandi/pkg/errors"
	"mandi/pkg/logger"
)

// PredictRequest is the JSON payload for a price prediction. Numeric fields
// are pointers so missing keys can be told apart from zero values.
type PredictRequest struct {
	MSP             *float64 `json:"MSP"`
	Price1DayAgo    *float64 `json:"Price_1DayAgo"`
	Price2DaysAgo   *float64 `json:"Price_2DaysAgo"`
	ArrivalToday    *float64 `json:"Arrival_Today"`
	Arrival1DayAgo  *float64 `json:"Arrival_1DayAgo"`
	Arrival2DaysAgo *float64 `json:"Arrival_2DaysAgo"`

	CommodityGroup string `json:"Commodity_Group"`
	Commodity      string `json:"Commodity"`
	Variety        string `json:"Variety"`
}

// PredictResponse is the prediction payload
type PredictResponse struct {
	PredictedPriceTomorrow float64 `json:"predicted_price_tomorrow"`
	Trend                  string  `json:"trend"`
}

// PredictHandler serves POST /predict
type PredictHandler struct {
	predictor *ml.Predictor
	log       *logger.Logger
}

// NewPredictHandler creates the prediction endpoint
func NewPredictHandler(predictor *ml.Predictor, log *logger.Logger) *PredictHandler {
	return &PredictHandler{predictor: predictor, log: log}
}

// Handle decodes the request, validates required fields, and runs the model
func (h *PredictHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.Predictions.WithLabelValues("invalid_input").Inc()
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if msg, ok := req.validate(); !ok {
		metrics.Predictions.WithLabelValues("invalid_input").Inc()
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	pred, err := h.predictor.Predict(ml.PredictionInput{
		MSP:            *req.MSP,
		Price1DayAgo:   *req.Price1DayAgo,
		Price2DaysAgo:  *req.Price2DaysAgo,
		ArrivalToday:   *req.ArrivalToday,
		Arrival1DayAgo: *req.Arrival1DayAgo,
		Arrival2DayAgo: *req.Arrival2DaysAgo,
		CommodityGroup: req.CommodityGroup,
		Commodity:      req.Commodity,
		Variety:        req.Variety,
	})
	if err != nil {
		if errors.Is(err, errors.ErrModelNotLoaded) || errors.Is(err, errors.ErrEncodersNotLoaded) {
			metrics.Predictions.WithLabelValues("unavailable").Inc()
			writeError(w, http.StatusInternalServerError, "Model not loaded")
			return
		}
		metrics.Predictions.WithLabelValues("unavailable").Inc()
		h.log.Errorf("Prediction failed: %v", err)
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	metrics.Predictions.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, PredictResponse{
		PredictedPriceTomorrow: math.Round(pred.Price*100) / 100,
		Trend:                  pred.Trend,
	})
}

// validate reports the first missing required field
func (r *PredictRequest) validate() (string, bool) {
	required := []struct {
		name  string
		value *float64
	}{
		{"MSP", r.MSP},
		{"Price_1DayAgo", r.Price1DayAgo},
		{"Price_2DaysAgo", r.Price2DaysAgo},
		{"Arrival_Today", r.ArrivalToday},
		{"Arrival_1DayAgo", r.Arrival1DayAgo},
		{"Arrival_2DaysAgo", r.Arrival2DaysAgo},
	}
	for _, f := range required {
		if f.value == nil {
			return fmt.Sprintf("missing required field %s", f.name), false
		}
	}
	return "", true
}
