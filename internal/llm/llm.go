// Package llm defines the provider-neutral completion client used by the
// extraction and narrative collaborators.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Client sends one prompt to a model and returns the raw text reply.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// Request is a single-turn completion.
type Request struct {
	System string
	Prompt string
	// JSON asks the provider to constrain output to a JSON object.
	JSON bool
}

var (
	// ErrAuth means the provider rejected our credentials. Never retried.
	ErrAuth = errors.New("llm authentication failed")
	// ErrQuota means the account quota or billing limit is exhausted. Never retried.
	ErrQuota = errors.New("llm quota exhausted")
	// ErrUnavailable covers provider outages, overload and transient throttling.
	ErrUnavailable = errors.New("llm provider unavailable")
	// ErrMalformedOutput means the provider answered without usable content.
	ErrMalformedOutput = errors.New("llm returned malformed output")
	// ErrNotConfigured is returned by the disabled client.
	ErrNotConfigured = errors.New("llm provider not configured")
)

// ProviderError carries the provider's HTTP status and message, classified
// into one of the sentinel errors above.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	Kind     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: http status %d: %s", e.Provider, e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}

// Classify maps a provider HTTP status and message onto the sentinel errors.
// A nil Kind means the failure is a caller bug (bad request) and is not retried.
func Classify(provider string, status int, message string) *ProviderError {
	msg := strings.ToLower(message)
	var kind error
	switch {
	case status == 401 || status == 403:
		kind = ErrAuth
	case status == 402:
		kind = ErrQuota
	case status == 429 && (strings.Contains(msg, "quota") || strings.Contains(msg, "billing") || strings.Contains(msg, "exhausted")):
		kind = ErrQuota
	case status == 429, status == 408, status >= 500:
		kind = ErrUnavailable
	}
	return &ProviderError{Provider: provider, Status: status, Message: strings.TrimSpace(message), Kind: kind}
}

// Disabled is the client used when no provider is configured.
type Disabled struct{}

// Complete returns ErrNotConfigured.
func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

// Name implements Client.
func (Disabled) Name() string { return "none" }
