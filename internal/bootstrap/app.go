package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"ats-backend/internal/atsscore"
	"ats-backend/internal/entitlement"
	"ats-backend/internal/extraction"
	"ats-backend/internal/llm"
	"ats-backend/internal/llm/gemini"
	"ats-backend/internal/llm/openai"
	"ats-backend/internal/narrative"
	"ats-backend/internal/services/health"
	"ats-backend/internal/shared/config"
	"ats-backend/internal/shared/server"
	"ats-backend/internal/shared/storage/db"
	"ats-backend/internal/shared/telemetry"
	"ats-backend/internal/throttle"
)

const redisKeyPrefix = "ats:throttle"

// App holds shared dependencies and the router built from them.
type App struct {
	Config             config.Config
	Router             *gin.Engine
	DB                 *sql.DB
	Redis              *redis.Client
	ThrottleStore      throttle.Store
	LLM                llm.Client
	Extractor          extraction.Extractor
	Narrative          narrative.Generator
	ScoreRepo          atsscore.Repo
	ScoreLimiter       *throttle.Limiter
	ReadLimiter        *throttle.Limiter
	Entitlements       *entitlement.Service
	ScoreService       *atsscore.Service
	ScoreHandler       *atsscore.Handler
	EntitlementHandler *entitlement.Handler
	Health             *health.Service
}

// Build prepares shared dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB}

	if err := buildThrottle(app); err != nil {
		app.Close()
		return nil, err
	}
	if err := buildLLM(ctx, app); err != nil {
		app.Close()
		return nil, err
	}
	if err := buildServices(app); err != nil {
		app.Close()
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		ScoreHandler:       app.ScoreHandler,
		EntitlementHandler: app.EntitlementHandler,
		Health:             app.Health,
	})

	return app, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.database_skipped", map[string]any{"reason": "DATABASE_URL empty", "storage": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_fallback", map[string]any{"error": err, "storage": "memory"})
			return nil, nil
		}
		return nil, err
	}

	// Production applies migrations through cmd/migrate before rollout.
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildThrottle(app *App) error {
	cfg := app.Config
	var store throttle.Store
	switch cfg.ThrottleStore {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		app.Redis = client
		store = throttle.NewRedisStore(client, redisKeyPrefix)
	case "postgres":
		if app.DB == nil {
			if !isDevLike(cfg.Env) {
				return fmt.Errorf("THROTTLE_STORE=postgres requires DATABASE_URL")
			}
			telemetry.Warn("bootstrap.throttle_fallback", map[string]any{"store": "memory"})
			store = throttle.NewMemoryStore()
			app.Config.ThrottleStore = "memory"
			break
		}
		store = throttle.NewPGStore(app.DB)
	default:
		store = throttle.NewMemoryStore()
	}

	policy := throttle.Config{
		MaxRequests: cfg.ThrottleMaxRequests,
		Window:      cfg.ThrottleWindow,
	}
	app.ThrottleStore = store
	app.ScoreLimiter = throttle.NewLimiter(store, policy)
	app.ReadLimiter = throttle.NewLimiter(store, policy)
	return nil
}

// NewLLMClient builds the completion client for cfg.LLMProvider. Unknown or
// "none" providers get the disabled client.
func NewLLMClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, cfg.LLMTimeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return llm.Disabled{}, nil
	}
}

func buildLLM(ctx context.Context, app *App) error {
	client, err := NewLLMClient(ctx, app.Config)
	if err != nil {
		if !isDevLike(app.Config.Env) {
			return err
		}
		telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": app.Config.LLMProvider, "error": err})
		client = llm.Disabled{}
		app.Config.LLMProvider = "none"
	}
	app.LLM = client
	return nil
}

func buildServices(app *App) error {
	var repo atsscore.Repo
	var entitlements *entitlement.Service
	if app.DB != nil {
		repo = &atsscore.PGRepo{DB: app.DB}
		entitlements = entitlement.NewPostgresService(entitlement.NewPGStore(app.DB))
	} else {
		repo = atsscore.NewMemoryRepo()
		entitlements = entitlement.NewService()
	}

	app.Extractor = extraction.NewLLMExtractor(app.LLM, ModelName(app.LLM, app.Config.LLMModel), app.Config.LLMTimeout)
	if app.Config.NarrativeEnabled && app.Config.LLMProvider != "none" {
		app.Narrative = narrative.NewLLMGenerator(app.LLM, app.Config.LLMTimeout)
	}

	svc, err := atsscore.NewService(app.Extractor, app.ScoreLimiter, app.Narrative, repo)
	if err != nil {
		return fmt.Errorf("build scoring service: %w", err)
	}

	var pinger health.Pinger
	if app.DB != nil {
		pinger = app.DB
	}

	app.ScoreRepo = repo
	app.Entitlements = entitlements
	app.ScoreService = svc
	app.ScoreHandler = atsscore.NewHandler(svc, entitlements, app.ReadLimiter)
	app.EntitlementHandler = entitlement.NewHandler(entitlements)
	app.Health = health.NewService(pinger, app.Config.ThrottleStore, app.Config.LLMProvider)
	return nil
}

// StartPruner removes expired throttle windows every interval until ctx is
// done. Redis expires its own keys, so nothing runs for that store.
func (a *App) StartPruner(ctx context.Context, interval time.Duration) {
	window := a.ScoreLimiter.Config().Window
	if interval <= 0 {
		interval = window
	}

	var prune func(now time.Time) (int64, error)
	switch s := a.ThrottleStore.(type) {
	case *throttle.MemoryStore:
		prune = func(now time.Time) (int64, error) {
			return int64(s.Prune(now, window)), nil
		}
	case *throttle.PGStore:
		prune = func(now time.Time) (int64, error) {
			return s.Prune(ctx, now, window)
		}
	default:
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed, err := prune(now)
				if err != nil {
					telemetry.Warn("throttle.prune_failed", map[string]any{"error": err})
					continue
				}
				if removed > 0 {
					telemetry.Debug("throttle.pruned", map[string]any{"removed": removed})
				}
			}
		}
	}()
}

// ModelName reports the model a client sends to, falling back to configured.
func ModelName(client llm.Client, configured string) string {
	if m, ok := client.(interface{ Model() string }); ok {
		return m.Model()
	}
	return configured
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
