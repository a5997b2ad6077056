package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestServiceGrantAndExpiry(t *testing.T) {
	svc := NewService()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := svc.Allowed(ctx, "email:a@example.com", ToolATSScore)
	if err != nil || ok {
		t.Fatalf("expected no grant, got ok=%v err=%v", ok, err)
	}

	if _, err := svc.Grant(ctx, "email:a@example.com", ToolATSScore, time.Hour); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if ok, _ := svc.Allowed(ctx, "email:a@example.com", ToolATSScore); !ok {
		t.Fatalf("expected grant to be active")
	}
	if ok, _ := svc.Allowed(ctx, "email:b@example.com", ToolATSScore); ok {
		t.Fatalf("grant must not leak to another caller")
	}

	now = now.Add(time.Hour)
	if ok, _ := svc.Allowed(ctx, "email:a@example.com", ToolATSScore); ok {
		t.Fatalf("expected grant to expire at its deadline")
	}
}

func TestServicePermanentGrantAndRevoke(t *testing.T) {
	svc := NewService()
	ctx := context.Background()
	g, err := svc.Grant(ctx, "token:abc", ToolATSScore, 0)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if g.ExpiresAt != nil {
		t.Fatalf("expected no expiry, got %v", g.ExpiresAt)
	}
	if ok, _ := svc.Allowed(ctx, "token:abc", ToolATSScore); !ok {
		t.Fatalf("expected permanent grant to be active")
	}
	if err := svc.Revoke(ctx, "token:abc", ToolATSScore); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := svc.Revoke(ctx, "token:abc", ToolATSScore); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second revoke, got %v", err)
	}
}

func TestServiceRejectsEmptyCaller(t *testing.T) {
	svc := NewService()
	if _, err := svc.Allowed(context.Background(), " ", ToolATSScore); !errors.Is(err, ErrInvalidCaller) {
		t.Fatalf("expected ErrInvalidCaller, got %v", err)
	}
}
