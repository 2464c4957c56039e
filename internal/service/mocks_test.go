package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
)

// --- Mocks ---

// mockReports serves canned payloads per key and records every request.
type mockReports struct {
	mu       sync.Mutex
	payloads map[domain.ReportKey]string
	fail     bool
	calls    int
	requests []domain.ReportRequest
}

func (m *mockReports) FetchMany(_ context.Context, reqs []domain.ReportRequest) domain.ReportSet {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.requests = append(m.requests, reqs...)

	set := make(domain.ReportSet, len(reqs))
	for _, r := range reqs {
		if m.fail {
			set[r.Key] = domain.ReportResult{Key: r.Key, Err: &domain.ErrExternalService{Service: string(r.Key), Err: errors.New("connection refused")}}
			continue
		}
		raw, ok := m.payloads[r.Key]
		if !ok {
			raw = "[]"
		}
		payload := json.RawMessage(raw)
		set[r.Key] = domain.ReportResult{Key: r.Key, Payload: payload, Rows: domain.DecodeRows(payload)}
	}
	return set
}

func (m *mockReports) request(key domain.ReportKey) (domain.ReportRequest, bool) {
	for _, r := range m.requests {
		if r.Key == key {
			return r, true
		}
	}
	return domain.ReportRequest{}, false
}

type mockLLM struct {
	mu       sync.Mutex
	content  string
	err      error
	requests []*domain.CompletionRequest
}

func (m *mockLLM) Complete(_ context.Context, req *domain.CompletionRequest) (*domain.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Completion{Content: m.content, Model: "gpt-4o-mini", PromptTokens: 100, CompletionTokens: 20}, nil
}

func (m *mockLLM) last() *domain.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

type sentMessage struct {
	To   string
	Body string
}

type mockSender struct {
	mu     sync.Mutex
	sent   []sentMessage
	read   []string
	reject bool
	err    error
	readCh chan string

	readDeadline    time.Time
	readHasDeadline bool
	readCtxErr      error
}

func (m *mockSender) SendText(_ context.Context, to, body string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	m.sent = append(m.sent, sentMessage{To: to, Body: body})
	return !m.reject, nil
}

func (m *mockSender) MarkRead(ctx context.Context, id string) error {
	m.mu.Lock()
	m.read = append(m.read, id)
	m.readDeadline, m.readHasDeadline = ctx.Deadline()
	m.readCtxErr = ctx.Err()
	m.mu.Unlock()
	if m.readCh != nil {
		m.readCh <- id
	}
	return nil
}

func (m *mockSender) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}
