package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
)

// Config holds all application configuration.
// Values are loaded once from environment variables with sensible defaults
// and never mutated afterwards; components receive it explicitly.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Shared secret checked on the proxy, ping and send endpoints
	// (x-api-key header). Empty means every protected call fails with 500.
	AppPassword string

	// Upstream report URLs, one per report key (UPSTREAM_<KEY>).
	Upstreams map[domain.ReportKey]string

	// Internal proxy used by the assistant to read reports.
	InternalBaseURL string
	InternalAPIKey  string

	// HTTP client. Zero timeout keeps the transport default.
	HTTPTimeout time.Duration

	// Resilience
	ReportMaxRetries int
	MaxRetries       int
	InitialBackoff   time.Duration
	MaxConcurrency   int

	// LLM
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// WhatsApp Cloud API
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string
	WhatsAppGraphURL      string
	WhatsAppAPIVersion    string
	WhatsAppSendRate      float64
	WhatsAppDedupTTL      time.Duration

	// Business calendar
	BusinessUTCOffset time.Duration

	// CORS
	AllowedOrigins []string

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	port := getEnvInt("PORT", 8080)
	appPassword := getEnv("APP_PASSWORD", "")

	upstreams := make(map[domain.ReportKey]string, len(domain.AllReportKeys))
	for _, k := range domain.AllReportKeys {
		if v := getEnv(k.EnvName(), ""); v != "" {
			upstreams[k] = v
		}
	}

	return &Config{
		Port:     port,
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AppPassword: appPassword,
		Upstreams:   upstreams,

		InternalBaseURL: strings.TrimRight(getEnv("INTERNAL_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		InternalAPIKey:  getEnv("DV_API_KEY", appPassword),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 0),

		ReportMaxRetries: getEnvInt("REPORT_MAX_RETRIES", 0),
		MaxRetries:       getEnvInt("MAX_RETRIES", 1),
		InitialBackoff:   getEnvDuration("INITIAL_BACKOFF", 200*time.Millisecond),
		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 12),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		WhatsAppToken:         getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppGraphURL:      strings.TrimRight(getEnv("WHATSAPP_GRAPH_URL", "https://graph.facebook.com"), "/"),
		WhatsAppAPIVersion:    getEnv("WHATSAPP_API_VERSION", "v19.0"),
		WhatsAppSendRate:      getEnvFloat("WHATSAPP_SEND_RATE", 20),
		WhatsAppDedupTTL:      getEnvDuration("WHATSAPP_DEDUP_TTL", 10*time.Minute),

		BusinessUTCOffset: getEnvDuration("BUSINESS_UTC_OFFSET", -3*time.Hour),

		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// UpstreamURL returns the configured URL for key.
func (c *Config) UpstreamURL(key domain.ReportKey) (string, error) {
	u, ok := c.Upstreams[key]
	if !ok || u == "" {
		return "", &domain.ErrDependencyMissing{Name: key.EnvName()}
	}
	return u, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
