package observability

import (
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Question outcomes recorded by the assistant.
const (
	OutcomeData  = "data"
	OutcomeLLM   = "llm"
	OutcomeClock = "clock"
	OutcomeError = "error"
)

// Metrics holds all Prometheus metrics for the assistant.
type Metrics struct {
	// Registry owns these metrics. Exposed so /metrics can serve it.
	Registry *prometheus.Registry

	operationDuration *prometheus.HistogramVec
	questions         *prometheus.CounterVec
	upstreamErrors    *prometheus.CounterVec
	tokensUsed        *prometheus.CounterVec
	whatsappSends     *prometheus.CounterVec
	webhookEvents     *prometheus.CounterVec
}

// NewMetrics creates a private registry and registers every metric in it.
// A private registry lets tests call NewMetrics repeatedly.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dvassistant_operation_duration_seconds",
				Help:    "Duration of operations (resolve, llm, reports, whatsapp).",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		questions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dvassistant_questions_total",
				Help: "Questions handled, by channel and outcome.",
			},
			[]string{"channel", "outcome"},
		),
		upstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dvassistant_upstream_errors_total",
				Help: "Failed upstream calls, by dependency.",
			},
			[]string{"service"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dvassistant_llm_tokens_total",
				Help: "LLM tokens consumed.",
			},
			[]string{"type"},
		),
		whatsappSends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dvassistant_whatsapp_sends_total",
				Help: "Outbound WhatsApp messages, by result.",
			},
			[]string{"status"},
		),
		webhookEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dvassistant_webhook_events_total",
				Help: "Inbound webhook events, by disposition.",
			},
			[]string{"disposition"},
		),
	}
}

// RecordDuration records how long an operation took.
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrQuestion counts one handled question.
func (m *Metrics) IncrQuestion(channel domain.Channel, outcome string) {
	m.questions.WithLabelValues(channel.String(), outcome).Inc()
}

// IncrUpstreamError counts a failed call to an external dependency.
func (m *Metrics) IncrUpstreamError(service string) {
	m.upstreamErrors.WithLabelValues(service).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrWhatsAppSend counts an outbound message ("sent" or "failed").
func (m *Metrics) IncrWhatsAppSend(status string) {
	m.whatsappSends.WithLabelValues(status).Inc()
}

// IncrWebhookEvent counts an inbound event ("processed", "duplicate",
// "ignored", "bad_signature").
func (m *Metrics) IncrWebhookEvent(disposition string) {
	m.webhookEvents.WithLabelValues(disposition).Inc()
}

// Snapshot returns the counters behind GET /api/metrics/assistant.
func (m *Metrics) Snapshot() *domain.AssistantMetrics {
	var fromData, fromLLM, fromClock, errs float64
	for _, ch := range []domain.Channel{domain.ChannelAPI, domain.ChannelWhatsApp} {
		fromData += getCounterValue(m.questions, ch.String(), OutcomeData)
		fromLLM += getCounterValue(m.questions, ch.String(), OutcomeLLM)
		fromClock += getCounterValue(m.questions, ch.String(), OutcomeClock)
		errs += getCounterValue(m.questions, ch.String(), OutcomeError)
	}
	total := fromData + fromLLM + fromClock + errs

	upstream := 0.0
	for _, k := range domain.AllReportKeys {
		upstream += getCounterValue(m.upstreamErrors, string(k))
	}
	upstream += getCounterValue(m.upstreamErrors, "llm") + getCounterValue(m.upstreamErrors, "whatsapp")

	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")

	fallbackRate := 0.0
	if total > 0 {
		fallbackRate = fromLLM / total
	}

	// gpt-4o-mini list price: $0.15/1M prompt, $0.60/1M completion.
	estimatedCost := (promptTokens/1e6)*0.15 + (completionTokens/1e6)*0.60

	return &domain.AssistantMetrics{
		TotalQuestions:   int64(total),
		AnsweredFromData: int64(fromData),
		LLMFallbacks:     int64(fromLLM),
		Errors:           int64(errs),
		FallbackRate:     fallbackRate,
		UpstreamErrors:   int64(upstream),
		PromptTokens:     int64(promptTokens),
		CompletionTokens: int64(completionTokens),
		EstimatedCostUsd: estimatedCost,
		DuplicateEvents:  int64(getCounterValue(m.webhookEvents, "duplicate")),
		Period:           "since_start",
	}
}

// getCounterValue reads the current value of one labeled counter.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
