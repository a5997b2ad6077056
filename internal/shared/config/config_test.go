package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "PORT", "DATABASE_URL", "THROTTLE_STORE", "THROTTLE_MAX_REQUESTS", "THROTTLE_WINDOW", "LLM_PROVIDER", "NARRATIVE_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.ThrottleStore != "memory" {
		t.Fatalf("expected memory throttle store, got %q", cfg.ThrottleStore)
	}
	if cfg.ThrottleMaxRequests != 1000 || cfg.ThrottleWindow != 30*time.Minute {
		t.Fatalf("unexpected throttle defaults: %d / %s", cfg.ThrottleMaxRequests, cfg.ThrottleWindow)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected openai provider, got %q", cfg.LLMProvider)
	}
	if !cfg.NarrativeEnabled {
		t.Fatalf("expected narrative enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "postgres://localhost/ats")
	t.Setenv("THROTTLE_STORE", "")
	t.Setenv("THROTTLE_MAX_REQUESTS", "3")
	t.Setenv("THROTTLE_WINDOW", "90")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("LLM_TIMEOUT_SECONDS", "15")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.ThrottleStore != "postgres" {
		t.Fatalf("expected postgres store when DATABASE_URL is set, got %q", cfg.ThrottleStore)
	}
	if cfg.ThrottleMaxRequests != 3 || cfg.ThrottleWindow != 90*time.Second {
		t.Fatalf("unexpected throttle config: %d / %s", cfg.ThrottleMaxRequests, cfg.ThrottleWindow)
	}
	if cfg.LLMProvider != "gemini" || cfg.LLMTimeout != 15*time.Second {
		t.Fatalf("unexpected llm config: %q / %s", cfg.LLMProvider, cfg.LLMTimeout)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigin)
	}
}

func TestGetDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("THROTTLE_WINDOW", "soon")
	if got := getDuration("THROTTLE_WINDOW", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	t.Setenv("THROTTLE_WINDOW", "45m")
	if got := getDuration("THROTTLE_WINDOW", time.Minute); got != 45*time.Minute {
		t.Fatalf("expected 45m, got %s", got)
	}
}
