package client

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/infra/observability"
	"github.com/grupodv/dv-assistant-go/internal/infra/resilience"
	"github.com/grupodv/dv-assistant-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
)

// UpstreamProxy relays report requests to the configured upstream URLs.
// Upstream statuses are returned as-is; only transport failures are errors.
type UpstreamProxy struct {
	httpClient *http.Client
	upstreams  map[domain.ReportKey]string
	breakers   map[domain.ReportKey]*resilience.Breaker
	metrics    *observability.Metrics
}

// NewUpstreamProxy creates a proxy over the key -> URL table.
func NewUpstreamProxy(httpClient *http.Client, upstreams map[domain.ReportKey]string, metrics *observability.Metrics) *UpstreamProxy {
	breakers := make(map[domain.ReportKey]*resilience.Breaker, len(upstreams))
	for k := range upstreams {
		breakers[k] = resilience.NewCircuitBreaker("upstream:" + string(k))
	}
	return &UpstreamProxy{
		httpClient: httpClient,
		upstreams:  upstreams,
		breakers:   breakers,
		metrics:    metrics,
	}
}

// Forward performs GET on the upstream of key with query merged into its URL.
func (p *UpstreamProxy) Forward(ctx context.Context, key domain.ReportKey, query url.Values) (*port.UpstreamResponse, error) {
	ctx, span := tracer.Start(ctx, "UpstreamProxy.Forward")
	defer span.End()
	span.SetAttributes(attribute.String("report", string(key)))

	raw, ok := p.upstreams[key]
	if !ok || raw == "" {
		return nil, &domain.ErrDependencyMissing{Name: key.EnvName()}
	}
	target, err := url.Parse(raw)
	if err != nil {
		return nil, &domain.ErrDependencyMissing{Name: key.EnvName()}
	}
	q := target.Query()
	for k, vs := range query {
		if k == "slug" || len(vs) == 0 {
			continue
		}
		q.Set(k, vs[len(vs)-1])
	}
	target.RawQuery = q.Encode()

	var out *port.UpstreamResponse
	err = p.breakers[key].Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxReportBody))
		if err != nil {
			return err
		}
		out = &port.UpstreamResponse{
			StatusCode:  resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        body,
		}
		return nil
	})
	if err != nil {
		p.metrics.IncrUpstreamError(string(key))
		return nil, &domain.ErrExternalService{Service: string(key), Err: err}
	}

	span.SetAttributes(attribute.Int("http.status_code", out.StatusCode))
	return out, nil
}
