package domain

import "fmt"

// Error types for consistent error handling across the assistant.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call
// (upstream report, LLM provider, WhatsApp Graph API).
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrUpstreamStatus is returned when an external service answers with a
// non-2xx status. Retries skip 4xx statuses.
type ErrUpstreamStatus struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *ErrUpstreamStatus) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Retryable reports whether repeating the call could succeed.
func (e *ErrUpstreamStatus) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates a missing or wrong shared secret.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrDependencyMissing indicates a required credential or endpoint was not
// configured. It surfaces on first use, never at startup.
type ErrDependencyMissing struct {
	Name string
}

func (e *ErrDependencyMissing) Error() string {
	return fmt.Sprintf("missing %s", e.Name)
}
