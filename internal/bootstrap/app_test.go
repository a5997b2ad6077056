package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ats-backend/internal/llm"
	"ats-backend/internal/shared/config"
	"ats-backend/internal/throttle"
)

func devConfig() config.Config {
	return config.Config{
		Env:                 "dev",
		ThrottleStore:       "memory",
		ThrottleMaxRequests: 5,
		ThrottleWindow:      time.Minute,
		LLMProvider:         "none",
		NarrativeEnabled:    true,
	}
}

func TestBuildInMemory(t *testing.T) {
	app, err := Build(context.Background(), devConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.DB != nil {
		t.Fatalf("expected no database")
	}
	if _, ok := app.ThrottleStore.(*throttle.MemoryStore); !ok {
		t.Fatalf("expected memory throttle store, got %T", app.ThrottleStore)
	}
	if _, ok := app.LLM.(llm.Disabled); !ok {
		t.Fatalf("expected disabled llm client, got %T", app.LLM)
	}
	if app.Narrative != nil {
		t.Fatalf("expected narrative off without a provider")
	}
	if got := app.ScoreLimiter.Config().MaxRequests; got != 5 {
		t.Fatalf("expected throttle max 5, got %d", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestBuildFallsBackWithoutAPIKeyInDev(t *testing.T) {
	cfg := devConfig()
	cfg.LLMProvider = "openai"
	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	if app.Config.LLMProvider != "none" {
		t.Fatalf("expected provider none after fallback, got %q", app.Config.LLMProvider)
	}
}

func TestBuildRequiresDatabaseInProduction(t *testing.T) {
	cfg := devConfig()
	cfg.Env = "production"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestBuildPostgresThrottleFallsBackInDev(t *testing.T) {
	cfg := devConfig()
	cfg.ThrottleStore = "postgres"
	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	if app.Config.ThrottleStore != "memory" {
		t.Fatalf("expected memory fallback, got %q", app.Config.ThrottleStore)
	}
}

func TestBuildRedisThrottle(t *testing.T) {
	cfg := devConfig()
	cfg.ThrottleStore = "redis"
	cfg.RedisAddr = "127.0.0.1:0"
	app, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	if _, ok := app.ThrottleStore.(*throttle.RedisStore); !ok {
		t.Fatalf("expected redis store, got %T", app.ThrottleStore)
	}
	if app.Redis == nil {
		t.Fatalf("expected redis client")
	}
}

func TestStartPrunerStopsWithContext(t *testing.T) {
	app, err := Build(context.Background(), devConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	app.StartPruner(ctx, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
}
