package atsscore

import (
	"errors"
	"fmt"
)

// Kind classifies a scoring failure for callers.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindAccessDenied        Kind = "access_denied"
	KindRateLimited         Kind = "rate_limited"
	KindExtractionFailed    Kind = "extraction_failed"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
)

// Error is a classified scoring failure. RetryAfter is set for
// KindRateLimited, in whole seconds.
type Error struct {
	Kind       Kind
	Message    string
	RetryAfter int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidInput        = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrAccessDenied        = &Error{Kind: KindAccessDenied, Message: "access denied"}
	ErrRateLimited         = &Error{Kind: KindRateLimited, Message: "rate limited"}
	ErrExtractionFailed    = &Error{Kind: KindExtractionFailed, Message: "extraction failed"}
	ErrUpstreamUnavailable = &Error{Kind: KindUpstreamUnavailable, Message: "upstream unavailable"}

	// ErrNotFound means no score record exists for the caller and id.
	ErrNotFound = errors.New("score not found")
)

// KindOf returns the kind of err, or "" when err is not a classified failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}
