package entitlement

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ats-backend/internal/shared/server/middleware"
	"ats-backend/internal/shared/server/respond"
)

// Handler exposes entitlement endpoints for the ATS tool.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches entitlement routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ats/entitlement", h.getEntitlement)
}

// RegisterDevRoutes attaches dev-only routes that grant and revoke access.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/ats/entitlement", h.grant)
	rg.DELETE("/ats/entitlement", h.revoke)
}

func (h *Handler) getEntitlement(c *gin.Context) {
	callerKey := middleware.CallerKey(c)
	g, err := h.Svc.Get(c.Request.Context(), callerKey, ToolATSScore)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.JSON(c, http.StatusOK, gin.H{"tool": ToolATSScore, "active": false})
			return
		}
		h.writeError(c, err, "failed to fetch entitlement")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"tool":      ToolATSScore,
		"active":    g.Active(time.Now().UTC()),
		"grantedAt": g.GrantedAt,
		"expiresAt": g.ExpiresAt,
	})
}

type grantRequest struct {
	TTLSeconds int `json:"ttlSeconds" binding:"min=0"`
}

func (h *Handler) grant(c *gin.Context) {
	var req grantRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "ttlSeconds must be a non-negative integer", nil)
			return
		}
	}
	g, err := h.Svc.Grant(c.Request.Context(), middleware.CallerKey(c), ToolATSScore, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		h.writeError(c, err, "failed to grant entitlement")
		return
	}
	respond.JSON(c, http.StatusCreated, g)
}

func (h *Handler) revoke(c *gin.Context) {
	err := h.Svc.Revoke(c.Request.Context(), middleware.CallerKey(c), ToolATSScore)
	if err != nil && !errors.Is(err, ErrNotFound) {
		h.writeError(c, err, "failed to revoke entitlement")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	case errors.Is(err, ErrInvalidCaller):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", msg, nil)
	}
}
