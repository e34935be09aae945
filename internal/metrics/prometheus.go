package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mandi_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mandi_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"handler"},
	)

	// Prediction metrics
	Predictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mandi_predictions_total",
			Help: "Total number of price prediction requests",
		},
		[]string{"status"}, // status: success|invalid_input|unavailable
	)

	// Assistant upstream metrics
	AssistantCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mandi_assistant_calls_total",
			Help: "Total number of assistant upstream calls",
		},
		[]string{"service", "status"}, // service: openrouter|elevenlabs|whisper
	)

	AssistantLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mandi_assistant_latency_seconds",
			Help:    "Assistant upstream call latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"service"},
	)

	// Pipeline metrics
	PipelineStepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mandi_pipeline_step_runs_total",
			Help: "Total number of pipeline step executions",
		},
		[]string{"step", "status"}, // status: success|error|skipped
	)

	PipelineStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mandi_pipeline_step_duration_seconds",
			Help:    "Pipeline step duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"step"},
	)

	PipelineLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mandi_pipeline_last_run_timestamp",
			Help: "Unix timestamp of last pipeline step execution",
		},
		[]string{"step"},
	)

	// Training metrics
	TrainingSMAPE = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mandi_training_smape_percent",
			Help: "SMAPE of the most recently trained model on the test split",
		},
	)

	TrainingRounds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mandi_training_boosting_rounds",
			Help: "Boosting rounds used by the most recently trained model",
		},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)

	prometheus.MustRegister(Predictions)

	prometheus.MustRegister(AssistantCalls)
	prometheus.MustRegister(AssistantLatency)

	prometheus.MustRegister(PipelineStepRuns)
	prometheus.MustRegister(PipelineStepDuration)
	prometheus.MustRegister(PipelineLastRun)

	prometheus.MustRegister(TrainingSMAPE)
	prometheus.MustRegister(TrainingRounds)
}

// Handler returns the HTTP handler for the /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
