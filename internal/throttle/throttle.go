// Package throttle implements the fixed-window request counter that guards
// the scoring endpoint per caller identity.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"ats-backend/internal/shared/util"
)

// ErrStore wraps failures of the backing counter store.
var ErrStore = errors.New("throttle store failure")

// Config is the fixed throttle policy.
type Config struct {
	MaxRequests   int
	Window        time.Duration
	MinRetryAfter time.Duration
}

// DefaultConfig allows 1000 requests per 30 minutes per caller and endpoint.
func DefaultConfig() Config {
	return Config{
		MaxRequests:   1000,
		Window:        30 * time.Minute,
		MinRetryAfter: 5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxRequests <= 0 {
		c.MaxRequests = def.MaxRequests
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.MinRetryAfter <= 0 {
		c.MinRetryAfter = def.MinRetryAfter
	}
	return c
}

// Window is the counter state after a hit. Count never exceeds MaxRequests+1.
type Window struct {
	Start time.Time
	Count int
}

// Store atomically records one request for (caller, endpoint) at now: it
// starts a fresh window when none exists or the current one has expired,
// otherwise it increments the count, saturating at limit.
type Store interface {
	Hit(ctx context.Context, caller, endpoint string, now time.Time, window time.Duration, limit int) (Window, error)
}

// Decision is the outcome of one throttle check.
type Decision struct {
	Allowed    bool
	Count      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// Limiter applies a Config over a Store.
type Limiter struct {
	store Store
	cfg   Config
	now   func() time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter builds a Limiter. Zero config fields fall back to DefaultConfig.
func NewLimiter(store Store, cfg Config, opts ...Option) *Limiter {
	l := &Limiter{store: store, cfg: cfg.withDefaults(), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the effective policy.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Allow records a request and decides whether it may proceed.
func (l *Limiter) Allow(ctx context.Context, caller, endpoint string) (Decision, error) {
	now := l.now().UTC()
	w, err := l.store.Hit(ctx, caller, endpoint, now, l.cfg.Window, l.cfg.MaxRequests+1)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrStore, err)
	}

	resetAt := w.Start.Add(l.cfg.Window)
	d := Decision{
		Allowed:   w.Count <= l.cfg.MaxRequests,
		Count:     w.Count,
		Remaining: max(0, l.cfg.MaxRequests-w.Count),
		ResetAt:   resetAt,
	}
	if !d.Allowed {
		d.RetryAfter = max(l.cfg.MinRetryAfter, resetAt.Sub(now))
	}
	return d, nil
}

// CallerKey picks the throttle identity: the verified access token subject,
// then the case-folded account email, then the source address. Callers must
// verify the token before passing it here. Subjects are hashed before they
// reach the store.
func CallerKey(accessToken, email, remoteAddr string) string {
	if t := strings.TrimSpace(accessToken); t != "" {
		return "token:" + util.HashUserKey(t)
	}
	if e := strings.ToLower(strings.TrimSpace(email)); e != "" {
		return "email:" + e
	}
	if a := strings.TrimSpace(remoteAddr); a != "" {
		return "ip:" + a
	}
	return "anonymous"
}
