// Package resilience guards outbound calls: retry with exponential backoff,
// circuit breakers per dependency, and a bulkhead for fan-outs.
package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/sony/gobreaker"
)

// Config holds resilience parameters.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// retryable is implemented by errors that know whether a new attempt can
// succeed (e.g. *domain.ErrUpstreamStatus).
type retryable interface {
	Retryable() bool
}

// RetryWithBackoff executes fn with exponential backoff + jitter.
// Errors that report Retryable() == false stop the loop at once, as do
// context cancellation and an open breaker. MaxRetries 0 means one attempt.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil || !shouldRetry(lastErr) {
			return lastErr
		}

		if attempt < cfg.MaxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * cfg.InitialBackoff
			wait := backoff
			if half := int64(backoff / 2); half > 0 {
				wait += time.Duration(rand.Int63n(half))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}

func shouldRetry(err error) bool {
	var open *domain.ErrCircuitOpen
	if errors.As(err, &open) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Breaker wraps a gobreaker circuit breaker for one named dependency and
// translates its rejections into *domain.ErrCircuitOpen.
type Breaker struct {
	cb      *gobreaker.CircuitBreaker
	service string
}

// NewCircuitBreaker creates a breaker for service: it opens after at least
// 5 requests with 60% failures and probes again after 10s.
func NewCircuitBreaker(service string) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        service,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about the dependency.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{cb: cb, service: service}
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrCircuitOpen{Service: b.service}
	}
	return err
}

// State returns the breaker state name ("closed", "half-open", "open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Bulkhead limits concurrent access to a resource.
type Bulkhead struct {
	sem chan struct{}
}

// NewBulkhead creates a bulkhead with the given max concurrency.
// Values below 1 are treated as 1.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Bulkhead{sem: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks until a slot is available or context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (b *Bulkhead) Release() {
	<-b.sem
}

// Do runs fn while holding a slot.
func (b *Bulkhead) Do(ctx context.Context, fn func() error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return fn()
}
