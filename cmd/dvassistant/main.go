package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/config"
	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/handler"
	"github.com/grupodv/dv-assistant-go/internal/infra/cache"
	"github.com/grupodv/dv-assistant-go/internal/infra/client"
	"github.com/grupodv/dv-assistant-go/internal/infra/observability"
	"github.com/grupodv/dv-assistant-go/internal/infra/resilience"
	"github.com/grupodv/dv-assistant-go/internal/locale"
	"github.com/grupodv/dv-assistant-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("internal_base_url", cfg.InternalBaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Int("report_max_retries", cfg.ReportMaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("openai_model", cfg.OpenAIModel),
		zap.Bool("openai_configured", cfg.OpenAIAPIKey != ""),
		zap.Bool("whatsapp_configured", cfg.WhatsAppToken != "" && cfg.WhatsAppPhoneNumberID != ""),
		zap.Bool("webhook_signature_check", cfg.WhatsAppAppSecret != ""),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
	)
	if cfg.AppPassword == "" {
		logger.Warn("APP_PASSWORD not set, protected routes will answer 500")
	}
	for _, k := range domain.AllReportKeys {
		if _, err := cfg.UpstreamURL(k); err != nil {
			logger.Warn("upstream not configured", zap.String("report", string(k)), zap.String("env", k.EnvName()))
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- Tracing ---
	shutdown, err := observability.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	reportCfg := resilienceCfg
	reportCfg.MaxRetries = cfg.ReportMaxRetries

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	gateway := client.NewReportGateway(httpClient, cfg.InternalBaseURL, cfg.InternalAPIKey, reportCfg, metrics, logger)
	proxy := client.NewUpstreamProxy(httpClient, cfg.Upstreams, metrics)
	llm := client.NewOpenAIClient(httpClient, client.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}, resilience.NewCircuitBreaker("llm"), resilienceCfg)
	whatsappClient := client.NewWhatsAppClient(httpClient, client.WhatsAppConfig{
		GraphURL:      cfg.WhatsAppGraphURL,
		APIVersion:    cfg.WhatsAppAPIVersion,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		Token:         cfg.WhatsAppToken,
		SendRate:      cfg.WhatsAppSendRate,
	}, resilience.NewCircuitBreaker("whatsapp"), metrics, logger)

	// --- Cache ---
	seen := cache.New[bool](ctx, cfg.WhatsAppDedupTTL)

	// --- Services ---
	clock := locale.NewClock(locale.BusinessZone(cfg.BusinessUTCOffset))
	resolver := service.NewResolver(gateway, service.NewAliasResolver(), metrics, logger)
	assistantSvc := service.NewAssistant(resolver, llm, clock, metrics, logger)
	whatsappSvc := service.NewWhatsAppService(assistantSvc, whatsappClient, seen, service.WhatsAppConfig{
		VerifyToken: cfg.WhatsAppVerifyToken,
		AppSecret:   cfg.WhatsAppAppSecret,
	}, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(assistantSvc, whatsappSvc, proxy, metrics, handler.Options{
		AppPassword:    cfg.AppPassword,
		AllowedOrigins: cfg.AllowedOrigins,
		Webhook:        handler.WebhookPolicy{AlwaysAck: true},
	}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
