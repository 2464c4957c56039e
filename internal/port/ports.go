// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"net/url"

	"github.com/grupodv/dv-assistant-go/internal/domain"
)

// ReportFetcher retrieves several upstream reports in one call.
// It never fails as a whole: each key's error is captured in its result.
type ReportFetcher interface {
	FetchMany(ctx context.Context, reqs []domain.ReportRequest) domain.ReportSet
}

// UpstreamResponse is a raw upstream reply relayed by the proxy.
type UpstreamResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// UpstreamForwarder relays one report request to its configured upstream.
type UpstreamForwarder interface {
	Forward(ctx context.Context, key domain.ReportKey, query url.Values) (*UpstreamResponse, error)
}

// ChatCompleter produces free-form text from an LLM.
type ChatCompleter interface {
	Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.Completion, error)
}

// MessageSender delivers WhatsApp messages.
type MessageSender interface {
	// SendText delivers body to the digits-only recipient. It reports
	// whether the provider accepted the message.
	SendText(ctx context.Context, to, body string) (bool, error)
	// MarkRead flags an inbound message as read.
	MarkRead(ctx context.Context, messageID string) error
}

// Cache remembers keys for a TTL. SetIfAbsent stores value only when key
// is not already present and reports whether it did.
type Cache[T any] interface {
	SetIfAbsent(key string, value T) bool
}
