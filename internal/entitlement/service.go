// Package entitlement answers whether a caller may use a paid tool. The
// scoring service only sees the resulting boolean.
package entitlement

import (
	"context"
	"errors"
	"strings"
	"time"
)

type store interface {
	Get(ctx context.Context, callerKey, tool string) (Grant, error)
	Put(ctx context.Context, g Grant) error
	Delete(ctx context.Context, callerKey, tool string) error
}

// Service wraps an entitlement store.
type Service struct {
	store store
	now   func() time.Time
}

// NewService constructs an in-memory Service.
func NewService() *Service {
	return &Service{store: newMemoryStore(), now: time.Now}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore, now: time.Now}
}

// Allowed reports whether callerKey holds an active grant for tool.
func (s *Service) Allowed(ctx context.Context, callerKey, tool string) (bool, error) {
	callerKey, tool = strings.TrimSpace(callerKey), strings.TrimSpace(tool)
	if callerKey == "" || tool == "" {
		return false, ErrInvalidCaller
	}
	g, err := s.store.Get(ctx, callerKey, tool)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return g.Active(s.now().UTC()), nil
}

// Get returns the caller's grant for tool.
func (s *Service) Get(ctx context.Context, callerKey, tool string) (Grant, error) {
	callerKey, tool = strings.TrimSpace(callerKey), strings.TrimSpace(tool)
	if callerKey == "" || tool == "" {
		return Grant{}, ErrInvalidCaller
	}
	return s.store.Get(ctx, callerKey, tool)
}

// Grant gives callerKey access to tool for ttl. A zero ttl never expires.
func (s *Service) Grant(ctx context.Context, callerKey, tool string, ttl time.Duration) (Grant, error) {
	callerKey, tool = strings.TrimSpace(callerKey), strings.TrimSpace(tool)
	if callerKey == "" || tool == "" {
		return Grant{}, ErrInvalidCaller
	}
	now := s.now().UTC()
	g := Grant{CallerKey: callerKey, Tool: tool, GrantedAt: now}
	if ttl > 0 {
		expires := now.Add(ttl)
		g.ExpiresAt = &expires
	}
	if err := s.store.Put(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// Revoke removes the caller's grant for tool.
func (s *Service) Revoke(ctx context.Context, callerKey, tool string) error {
	callerKey, tool = strings.TrimSpace(callerKey), strings.TrimSpace(tool)
	if callerKey == "" || tool == "" {
		return ErrInvalidCaller
	}
	return s.store.Delete(ctx, callerKey, tool)
}
