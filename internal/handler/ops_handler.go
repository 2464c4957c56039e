package handler

import (
	"net/http"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/infra/observability"
)

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:    "healthy",
			Service:   observability.ServiceName,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type pingResponse struct {
	OK bool  `json:"ok"`
	TS int64 `json:"ts"`
}

// pingHandler is the authenticated liveness probe used by the dashboard.
func pingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, pingResponse{OK: true, TS: time.Now().UnixMilli()})
	}
}

func assistantMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
