package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ats-backend/internal/atsscore"
	"ats-backend/internal/entitlement"
	"ats-backend/internal/services/health"
	"ats-backend/internal/shared/config"
	"ats-backend/internal/shared/metrics"
	"ats-backend/internal/shared/server/middleware"
	"ats-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config             config.Config
	ScoreHandler       *atsscore.Handler
	EntitlementHandler *entitlement.Handler
	Health             *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil, deps.Config.ThrottleStore, deps.Config.LLMProvider)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.Auth())
	api.GET("/health", func(c *gin.Context) {
		st := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !st.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, st)
	})
	registerMeRoutes(api)
	if deps.ScoreHandler != nil {
		deps.ScoreHandler.RegisterRoutes(api)
	}
	if deps.EntitlementHandler != nil {
		deps.EntitlementHandler.RegisterRoutes(api)
	}
	if isDevLike(deps.Config.Env) {
		dev := api.Group("/dev")
		registerDevTokenRoutes(dev)
		if deps.EntitlementHandler != nil {
			deps.EntitlementHandler.RegisterDevRoutes(dev)
		}
	}

	return r
}

func isDevLike(env string) bool {
	return env == "dev" || env == "local"
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
