package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/infra/observability"
	"github.com/grupodv/dv-assistant-go/internal/infra/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("client")

// maxReportBody caps how much of one report is read into memory.
const maxReportBody = 16 << 20

// ReportGateway reads reports through the internal proxy
// ({baseURL}/api/{key}), one request per key, all in parallel.
type ReportGateway struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breakers   map[domain.ReportKey]*resilience.Breaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewReportGateway creates a gateway with one circuit breaker per report,
// so a broken upstream does not block the others.
func NewReportGateway(
	httpClient *http.Client,
	baseURL, apiKey string,
	cfg resilience.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ReportGateway {
	breakers := make(map[domain.ReportKey]*resilience.Breaker, len(domain.AllReportKeys))
	for _, k := range domain.AllReportKeys {
		breakers[k] = resilience.NewCircuitBreaker("report:" + string(k))
	}
	return &ReportGateway{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		breakers:   breakers,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchMany fetches every request concurrently. The returned set has one
// entry per requested key; failures are stored in ReportResult.Err.
func (g *ReportGateway) FetchMany(ctx context.Context, reqs []domain.ReportRequest) domain.ReportSet {
	ctx, span := tracer.Start(ctx, "ReportGateway.FetchMany")
	defer span.End()
	span.SetAttributes(attribute.Int("reports.count", len(reqs)))

	start := time.Now()
	defer func() {
		g.metrics.RecordDuration("reports", time.Since(start))
	}()

	results := make([]domain.ReportResult, len(reqs))

	var eg errgroup.Group
	for i, req := range reqs {
		i, req := i, req
		eg.Go(func() error {
			results[i] = g.fetchOne(ctx, req)
			return nil
		})
	}
	_ = eg.Wait()

	set := make(domain.ReportSet, len(results))
	for _, r := range results {
		set[r.Key] = r
	}
	return set
}

func (g *ReportGateway) fetchOne(ctx context.Context, req domain.ReportRequest) domain.ReportResult {
	res := domain.ReportResult{Key: req.Key}

	var payload []byte
	err := g.bulkhead.Do(ctx, func() error {
		return g.breaker(req.Key).Execute(func() error {
			return resilience.RetryWithBackoff(ctx, g.cfg, func() error {
				var err error
				payload, err = g.get(ctx, req)
				return err
			})
		})
	})
	if err != nil {
		g.metrics.IncrUpstreamError(string(req.Key))
		res.Err = &domain.ErrExternalService{Service: string(req.Key), Err: err}
		return res
	}

	res.Payload = payload
	res.Rows = domain.DecodeRows(payload)
	return res
}

func (g *ReportGateway) breaker(key domain.ReportKey) *resilience.Breaker {
	if b, ok := g.breakers[key]; ok {
		return b
	}
	return resilience.NewCircuitBreaker("report:" + string(key))
}

func (g *ReportGateway) get(ctx context.Context, req domain.ReportRequest) ([]byte, error) {
	url := fmt.Sprintf("%s/api/%s", g.baseURL, req.Key)
	if len(req.Query) > 0 {
		url += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("x-api-key", g.apiKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReportBody))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ErrUpstreamStatus{
			Service:    string(req.Key),
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 200),
		}
	}
	if !json.Valid(body) {
		return nil, errNotJSON
	}
	return body, nil
}

var errNotJSON = errors.New("response is not JSON")

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
