package handler_test

import (
	"context"
	"net/url"
	"sync"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/port"
)

// --- Mocks ---

type mockAsker struct {
	mu        sync.Mutex
	answer    *domain.Answer
	err       error
	questions []string
}

func (m *mockAsker) Ask(_ context.Context, question string, _ domain.Channel) (*domain.Answer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions = append(m.questions, question)
	if question == "" {
		return nil, &domain.ErrValidation{Field: "question", Message: "missing question"}
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

type mockForwarder struct {
	resp  *port.UpstreamResponse
	err   error
	key   domain.ReportKey
	query url.Values
}

func (m *mockForwarder) Forward(_ context.Context, key domain.ReportKey, query url.Values) (*port.UpstreamResponse, error) {
	m.key = key
	m.query = query
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type mockSender struct {
	mu   sync.Mutex
	sent map[string]string
}

func (m *mockSender) SendText(_ context.Context, to, body string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sent == nil {
		m.sent = map[string]string{}
	}
	m.sent[to] = body
	return true, nil
}

func (m *mockSender) MarkRead(context.Context, string) error { return nil }

func (m *mockSender) body(to string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.sent[to]
	return b, ok
}
