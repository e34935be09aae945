// Package health exposes the Kubernetes-style probe endpoints. Readiness is
// driven by the pipeline artifacts loaded at startup rather than external
// connections.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"mandi/internal/bootstrap"
	"mandi/pkg/logger"
)

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	artifacts   *bootstrap.Artifacts
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a health check handler over the loaded artifacts
func New(log *logger.Logger, artifacts *bootstrap.Artifacts, serviceName, version string) *Handler {
	return &Handler{
		log:         log,
		artifacts:   artifacts,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// checks reports which artifacts are loaded
func (h *Handler) checks() map[string]string {
	status := func(loaded bool) string {
		if loaded {
			return "loaded"
		}
		return "missing"
	}
	return map[string]string{
		"model":    status(h.artifacts.Model != nil),
		"encoders": status(h.artifacts.Encoders != nil),
		"whisper":  status(h.artifacts.Transcriber != nil),
	}
}

// HandleLiveness returns 200 OK if the process is running
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// HandleReadiness returns 503 until the prediction artifacts are loaded.
// The speech model is optional and does not gate readiness.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := h.checks()
	ready := h.artifacts.Model != nil && h.artifacts.Encoders != nil

	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if !ready {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warnf("Readiness check failed: %v", checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(status)
}

// HandleHealth returns the detailed artifact status. Missing optional
// artifacts degrade the status without failing the check.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := h.checks()

	loaded := 0
	for _, v := range checks {
		if v == "loaded" {
			loaded++
		}
	}

	status := HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}

	statusCode := http.StatusOK
	if loaded == 0 {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else if loaded < len(checks) {
		status.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(status)
}
