package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// ReportKey names one upstream report. The set is closed: the proxy rejects
// anything not listed in AllReportKeys.
type ReportKey string

const (
	ReportResumoFinanceiro  ReportKey = "resumo_financeiro"
	ReportCancelamentos     ReportKey = "cancelamentos"
	ReportDelivery          ReportKey = "delivery"
	ReportMeta              ReportKey = "meta"
	ReportTravasComparacao  ReportKey = "travas_comparacao"
	ReportConciliacao       ReportKey = "conciliacao"
	ReportCouvertPagamentos ReportKey = "couvert_pagamentos"
	ReportCouvertABC        ReportKey = "couvert_abc"
	ReportABCVendas         ReportKey = "abc_vendas"
	ReportAvaliacoes        ReportKey = "avaliacoes"
	ReportReservas          ReportKey = "reservas"
	ReportLoginAPI          ReportKey = "login_api"
)

// AllReportKeys lists every report the proxy knows, in the order they are
// documented.
var AllReportKeys = []ReportKey{
	ReportResumoFinanceiro,
	ReportCancelamentos,
	ReportDelivery,
	ReportMeta,
	ReportTravasComparacao,
	ReportConciliacao,
	ReportCouvertPagamentos,
	ReportCouvertABC,
	ReportABCVendas,
	ReportAvaliacoes,
	ReportReservas,
	ReportLoginAPI,
}

// BundleReportKeys are the reports fetched for a data question. login_api
// is an authentication upstream, not business data.
var BundleReportKeys = []ReportKey{
	ReportMeta,
	ReportResumoFinanceiro,
	ReportABCVendas,
	ReportCancelamentos,
	ReportCouvertABC,
	ReportCouvertPagamentos,
	ReportReservas,
	ReportConciliacao,
	ReportDelivery,
	ReportAvaliacoes,
	ReportTravasComparacao,
}

// ParseReportKey validates a slug against the closed set.
func ParseReportKey(slug string) (ReportKey, error) {
	for _, k := range AllReportKeys {
		if string(k) == slug {
			return k, nil
		}
	}
	return "", &ErrNotFound{Resource: "report", ID: slug}
}

// EnvName is the environment variable holding the upstream URL for the key.
func (k ReportKey) EnvName() string {
	return "UPSTREAM_" + strings.ToUpper(string(k))
}

// ReportRequest asks the gateway for one report, optionally narrowed by
// query parameters understood by the upstream.
type ReportRequest struct {
	Key   ReportKey
	Query url.Values
}

// ReportResult is the outcome of fetching one report. Exactly one of
// Payload or Err is meaningful.
type ReportResult struct {
	Key     ReportKey
	Payload json.RawMessage
	Rows    []ReportRow
	Err     error
}

// ReportSet maps every requested key to its result. A failed key never
// removes the others.
type ReportSet map[ReportKey]ReportResult

// Rows returns the decoded rows for key, or nil when the key failed or was
// not requested.
func (s ReportSet) Rows(key ReportKey) []ReportRow {
	r, ok := s[key]
	if !ok || r.Err != nil {
		return nil
	}
	return r.Rows
}

// ReportRow is one upstream record. Field names vary between reports
// ("data"/"Data", "empresa"/"Empresa"), so accessors look keys up
// case-insensitively. Rows are never mutated after decoding.
type ReportRow map[string]any

// Field returns the value stored under name, ignoring case.
func (r ReportRow) Field(name string) (any, bool) {
	if v, ok := r[name]; ok {
		return v, true
	}
	for k, v := range r {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// String returns the first non-empty string found under any of names.
func (r ReportRow) String(names ...string) string {
	for _, n := range names {
		v, ok := r.Field(n)
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Date returns the row date reduced to YYYY-MM-DD, or "" when absent.
func (r ReportRow) Date() string {
	d := r.String("data", "date", "dia", "dt")
	if len(d) < 10 {
		return ""
	}
	return d[:10]
}

// Company returns the company the row belongs to.
func (r ReportRow) Company() string { return r.String("empresa", "company", "loja") }

// Platform returns the delivery platform of the row, if any.
func (r ReportRow) Platform() string { return r.String("plataforma", "platform", "canal") }

// DecodeRows extracts the record list from an upstream payload. Upstreams
// return either a bare array or an object wrapping the array.
func DecodeRows(payload json.RawMessage) []ReportRow {
	var rows []ReportRow
	if err := json.Unmarshal(payload, &rows); err == nil {
		return rows
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(payload, &wrapped); err != nil {
		return nil
	}
	for _, key := range []string{"data", "dados", "items", "rows", "result"} {
		raw, ok := wrapped[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &rows); err == nil {
			return rows
		}
	}
	return nil
}
