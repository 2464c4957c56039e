package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/port"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Relatórios: GET /api/{slug}
// ============================================================

func proxyHandler(proxy port.UpstreamForwarder, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/{slug}")
		defer span.End()

		slug := chi.URLParam(r, "slug")
		key, err := domain.ParseReportKey(slug)
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown slug")
			return
		}
		span.SetAttributes(attribute.String("report", string(key)))

		resp, err := proxy.Forward(ctx, key, r.URL.Query())
		if err != nil {
			var missing *domain.ErrDependencyMissing
			if errors.As(err, &missing) {
				handleServiceError(w, err, logger)
				return
			}
			logger.Error("upstream call failed", zap.String("report", string(key)), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, upstreamErrorResponse{
				Error:  "upstream_error",
				Detail: err.Error(),
			})
			return
		}

		relay(w, resp)
	}
}

// relay re-emits an upstream reply: JSON bodies as JSON, anything else raw.
func relay(w http.ResponseWriter, resp *port.UpstreamResponse) {
	if json.Valid(resp.Body) {
		w.Header().Set("Content-Type", "application/json")
	} else if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
