package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/infra/client"
	"github.com/grupodv/dv-assistant-go/internal/infra/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamProxy_Forward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.URL.Query().Get("token"), "upstream's own query must be kept")
		assert.Equal(t, "2026-10-01", r.URL.Query().Get("dataInicio"))
		assert.Empty(t, r.URL.Query().Get("slug"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	p := client.NewUpstreamProxy(srv.Client(), map[domain.ReportKey]string{
		domain.ReportMeta: srv.URL + "/meta?token=abc",
	}, observability.NewMetrics())

	resp, err := p.Forward(context.Background(), domain.ReportMeta, url.Values{
		"dataInicio": {"2026-10-01"},
		"slug":       {"meta"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestUpstreamProxy_NotConfigured(t *testing.T) {
	p := client.NewUpstreamProxy(http.DefaultClient, map[domain.ReportKey]string{}, observability.NewMetrics())

	_, err := p.Forward(context.Background(), domain.ReportReservas, nil)
	var missing *domain.ErrDependencyMissing
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "UPSTREAM_RESERVAS", missing.Name)
}

func TestUpstreamProxy_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	p := client.NewUpstreamProxy(http.DefaultClient, map[domain.ReportKey]string{
		domain.ReportMeta: srv.URL,
	}, observability.NewMetrics())

	_, err := p.Forward(context.Background(), domain.ReportMeta, nil)
	var ext *domain.ErrExternalService
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, "meta", ext.Service)
}
