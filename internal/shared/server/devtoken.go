package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ats-backend/internal/entitlement"
	"ats-backend/internal/shared/auth"
	"ats-backend/internal/shared/server/respond"
)

type devTokenRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

type devToolTokenRequest struct {
	PurchaseID string `json:"purchaseId" binding:"required,max=128"`
}

// registerDevTokenRoutes issues bearer and tool access tokens for local
// testing of signed-in and purchased flows.
func registerDevTokenRoutes(rg *gin.RouterGroup) {
	rg.POST("/token", devTokenHandler)
	rg.POST("/tool-token", devToolTokenHandler)
}

func devTokenHandler(c *gin.Context) {
	var req devTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "a valid email is required", nil)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	claims := auth.Claims{Email: email, Name: req.Name}
	claims.Subject = "dev:" + email

	token, err := auth.SignJWT(claims)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"token": token})
}

func devToolTokenHandler(c *gin.Context) {
	var req devToolTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "purchaseId is required", nil)
		return
	}
	subject := "purchase:" + strings.TrimSpace(req.PurchaseID)
	token, err := auth.SignToolToken(subject, entitlement.ToolATSScore, 0)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"token": token})
}
