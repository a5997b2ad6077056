package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func noWait(context.Context, time.Duration) error { return nil }

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"auth", Classify("openai", 401, "bad key"), false},
		{"quota", Classify("openai", 429, "You exceeded your current quota"), false},
		{"rate limited", Classify("openai", 429, "Rate limit reached"), true},
		{"server error", Classify("openai", 503, "overloaded"), true},
		{"bad request", Classify("openai", 400, "invalid model"), false},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"malformed", fmt.Errorf("extract: %w", ErrMalformedOutput), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Fatalf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryPolicyDelaysGrowExponentially(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.Delay(1) != 300*time.Millisecond || p.Delay(2) != 600*time.Millisecond {
		t.Fatalf("unexpected delays: %s, %s", p.Delay(1), p.Delay(2))
	}
}

func TestRetryPolicyStopsAfterThreeAttempts(t *testing.T) {
	p := DefaultRetryPolicy()
	var waits []time.Duration
	calls := 0
	err := p.do(context.Background(), "test", func(context.Context) error {
		calls++
		return Classify("gemini", 503, "unavailable")
	}, func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(waits) != 2 || waits[0] != 300*time.Millisecond || waits[1] != 600*time.Millisecond {
		t.Fatalf("unexpected waits: %v", waits)
	}
}

func TestRetryPolicyDoesNotRetryAuth(t *testing.T) {
	calls := 0
	err := DefaultRetryPolicy().do(context.Background(), "test", func(context.Context) error {
		calls++
		return Classify("openai", 403, "forbidden")
	}, noWait)
	if !errors.Is(err, ErrAuth) || calls != 1 {
		t.Fatalf("expected single ErrAuth attempt, got calls=%d err=%v", calls, err)
	}
}

func TestRetryPolicyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := DefaultRetryPolicy().Do(ctx, "test", func(context.Context) error {
		calls++
		return ErrUnavailable
	})
	if !errors.Is(err, ErrUnavailable) || calls != 1 {
		t.Fatalf("expected to stop after canceled wait, got calls=%d err=%v", calls, err)
	}
}

func TestDisabledClient(t *testing.T) {
	_, err := Disabled{}.Complete(context.Background(), Request{})
	if !errors.Is(err, ErrNotConfigured) || ShouldRetry(err) {
		t.Fatalf("expected final ErrNotConfigured, got %v", err)
	}
}
