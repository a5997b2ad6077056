package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"ats-backend/internal/shared/telemetry"
)

// RetryPolicy bounds retries at the collaborator boundary.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	Factor    float64
}

// DefaultRetryPolicy makes up to 3 attempts with 300ms, 600ms backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: 300 * time.Millisecond, Factor: 2}
}

// Delay returns the wait before retry number n (1-based).
func (p RetryPolicy) Delay(n int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 1; i < n; i++ {
		d *= p.Factor
	}
	return time.Duration(d)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempts
// are exhausted. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return p.do(ctx, op, fn, waitFor)
}

func (p RetryPolicy) do(ctx context.Context, op string, fn func(ctx context.Context) error, wait func(context.Context, time.Duration) error) error {
	attempts := max(p.Attempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !ShouldRetry(err) || attempt == attempts {
			return err
		}
		telemetry.Warn("llm.retry", map[string]any{
			"op":      op,
			"attempt": attempt,
			"error":   err.Error(),
		})
		if werr := wait(ctx, p.Delay(attempt)); werr != nil {
			return err
		}
	}
	return err
}

// ShouldRetry reports whether err is transient. Authentication and quota
// failures, caller cancellation and bad requests are final.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, ErrQuota) || errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrMalformedOutput) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind != nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, frag := range []string{"timeout", "connection reset", "connection refused", "connection closed", "broken pipe", "eof"} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
