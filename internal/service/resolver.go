package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/infra/observability"
	"github.com/grupodv/dv-assistant-go/internal/locale"
	"github.com/grupodv/dv-assistant-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/assistant")

// salesSource is one report that can answer "quanto vendi".
type salesSource struct {
	key    domain.ReportKey
	filter Filter
}

// Resolver turns a question into a figure computed from the reports, or
// tells the caller to fall back to the LLM with whatever was fetched.
type Resolver struct {
	reports port.ReportFetcher
	aliases *AliasResolver
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewResolver creates the resolver with its dependencies injected.
func NewResolver(
	reports port.ReportFetcher,
	aliases *AliasResolver,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		reports: reports,
		aliases: aliases,
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve answers question for the instant now (business timezone).
// The result is domain.Answered or domain.NeedsFallback, never nil.
func (r *Resolver) Resolve(ctx context.Context, question string, now time.Time) domain.ResolutionResult {
	q := strings.TrimSpace(question)
	if q == "" {
		return domain.NeedsFallback{Reason: domain.FallbackEmptyQuestion}
	}
	if !NeedsData(q) {
		return domain.NeedsFallback{Reason: domain.FallbackNotNeeded}
	}

	ctx, span := tracer.Start(ctx, "Resolver.Resolve")
	defer span.End()

	start := time.Now()
	defer func() {
		r.metrics.RecordDuration("resolve", time.Since(start))
	}()

	period := DetectPeriod(q, now)
	company, _ := r.aliases.Resolve(q)
	platform := DetectPlatform(q)

	set := r.reports.FetchMany(ctx, bundleRequests(period, company))
	for key, res := range set {
		if res.Err != nil {
			r.logger.Warn("report unavailable",
				zap.String("report", string(key)),
				zap.Error(res.Err),
			)
		}
	}

	if company == "" {
		company, _ = MatchCatalog(q, Companies(set.Rows(domain.ReportDelivery), set.Rows(domain.ReportMeta)))
	}

	span.SetAttributes(
		attribute.String("period.kind", period.Kind.String()),
		attribute.String("company", company),
		attribute.String("platform", platform.String()),
	)

	if IsSalesQuestion(q) {
		for _, src := range salesSources(q, period, company, platform) {
			total := Aggregate(set.Rows(src.key), src.filter)
			if total == 0 {
				continue
			}
			r.logger.Debug("answered from report",
				zap.String("report", string(src.key)),
				zap.Float64("total", total),
			)
			return domain.Answered{
				Text:   SalesAnswer(total, company, platform, period),
				Source: src.key,
				Total:  total,
				Period: period,
			}
		}
	}

	return domain.NeedsFallback{
		Reason: domain.FallbackNoData,
		Bundle: domain.NewDataBundle(company, period, set),
	}
}

// bundleRequests asks for every business report. meta accepts a server-side
// period and company filter.
func bundleRequests(period domain.Period, company string) []domain.ReportRequest {
	reqs := make([]domain.ReportRequest, 0, len(domain.BundleReportKeys))
	for _, key := range domain.BundleReportKeys {
		req := domain.ReportRequest{Key: key}
		if key == domain.ReportMeta {
			req.Query = url.Values{
				"dataInicio": {period.StartDate()},
				"dataFim":    {period.EndDate()},
			}
			if company != "" {
				req.Query.Set("empresa", company)
			}
		}
		reqs = append(reqs, req)
	}
	return reqs
}

// salesSources lists the reports to try, in priority order. meta is the
// all-channel total, so delivery questions are answered from the delivery
// report alone.
func salesSources(q string, period domain.Period, company string, platform domain.Platform) []salesSource {
	if platform != domain.PlatformNone || WantsDelivery(q) {
		return []salesSource{{
			key:    domain.ReportDelivery,
			filter: Filter{Period: period, Company: company, Platform: platform, ValueField: "bruto"},
		}}
	}
	return []salesSource{{
		key:    domain.ReportMeta,
		filter: Filter{Period: period, Company: company, ValueField: "Realizado", AcceptUndated: true},
	}}
}

// SalesAnswer renders a total as the reply sentence, e.g.
// "Você vendeu R$ 1.234,56 em MERCATTO DELÍCIA no iFood ontem."
func SalesAnswer(total float64, company string, platform domain.Platform, period domain.Period) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Você vendeu R$ %s", locale.FormatBRL(total))
	if company != "" {
		b.WriteString(" em ")
		b.WriteString(company)
	}
	if platform != domain.PlatformNone {
		b.WriteString(" no ")
		b.WriteString(platform.String())
	}
	b.WriteByte(' ')
	b.WriteString(period.Phrase())
	b.WriteByte('.')
	return b.String()
}
