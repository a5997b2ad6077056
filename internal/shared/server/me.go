package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ats-backend/internal/shared/server/middleware"
	"ats-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

// meHandler reports the identity the throttle and entitlement checks will see.
func meHandler(c *gin.Context) {
	response := gin.H{
		"guest":     middleware.IsGuest(c),
		"callerKey": middleware.CallerKey(c),
	}
	if userID := middleware.UserIDFromContext(c); userID != "" {
		response["userId"] = userID
	}
	if email := middleware.UserEmailFromContext(c); email != "" {
		response["email"] = email
	}

	respond.JSON(c, http.StatusOK, response)
}
