package handler

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// APIKeyMiddleware requires the x-api-key header to equal secret.
// With no secret configured every request fails with 500, never open.
func APIKeyMiddleware(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.Error("auth: APP_PASSWORD not configured", zap.String("path", r.URL.Path))
				writeError(w, http.StatusInternalServerError, "missing APP_PASSWORD")
				return
			}

			key := r.Header.Get("x-api-key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
				logger.Warn("auth: invalid api key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAPIKeyMiddleware enforces the x-api-key header only when a secret
// is configured; otherwise requests pass through.
func OptionalAPIKeyMiddleware(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	if secret == "" {
		return func(next http.Handler) http.Handler { return next }
	}
	return APIKeyMiddleware(secret, logger)
}
