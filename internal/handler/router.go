package handler

import (
	"net/http"

	"github.com/grupodv/dv-assistant-go/internal/infra/observability"
	"github.com/grupodv/dv-assistant-go/internal/port"
	"github.com/grupodv/dv-assistant-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// WebhookPolicy controls what the webhook tells the provider.
type WebhookPolicy struct {
	// AlwaysAck answers 200 even when processing failed, so the provider
	// does not retry or disable the webhook.
	AlwaysAck bool
}

// Options carries the HTTP-level settings of the router.
type Options struct {
	AppPassword    string
	AllowedOrigins []string
	Webhook        WebhookPolicy
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(
	assistant service.Asker,
	whatsapp *service.WhatsAppService,
	proxy port.UpstreamForwarder,
	metrics *observability.Metrics,
	opts Options,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		// Registered for every method so that GET gets a 405 instead of
		// falling through to the report proxy.
		r.HandleFunc("/ask", askHandler(assistant, logger))
		r.HandleFunc("/whatsapp", whatsappWebhookHandler(whatsapp, opts.Webhook, logger))
		r.With(OptionalAPIKeyMiddleware(opts.AppPassword, logger)).
			HandleFunc("/whatsapp-send", whatsappSendHandler(whatsapp, logger))

		r.Group(func(r chi.Router) {
			r.Use(APIKeyMiddleware(opts.AppPassword, logger))

			r.Get("/ping", pingHandler())
			r.Get("/metrics/assistant", assistantMetricsHandler(metrics))
			r.Get("/{slug}", proxyHandler(proxy, logger))
		})
	})

	return r
}
