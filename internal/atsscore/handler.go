package atsscore

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"ats-backend/internal/entitlement"
	"ats-backend/internal/extract"
	"ats-backend/internal/shared/server/middleware"
	"ats-backend/internal/shared/server/respond"
	"ats-backend/internal/shared/telemetry"
	"ats-backend/internal/throttle"
)

// Handler wires HTTP handlers to the scoring service.
type Handler struct {
	Svc          *Service
	Entitlements *entitlement.Service
	ReadLimiter  *throttle.Limiter
}

// NewHandler constructs a Handler. A nil entitlement service treats every
// caller as entitled.
func NewHandler(svc *Service, entitlements *entitlement.Service, readLimiter *throttle.Limiter) *Handler {
	return &Handler{Svc: svc, Entitlements: entitlements, ReadLimiter: readLimiter}
}

// RegisterRoutes attaches scoring routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ats/score", h.score)

	read := rg.Group("", middleware.Throttle(h.ReadLimiter, EndpointRead))
	read.GET("/ats/scores", middleware.RequireUser(), h.listScores)
	read.GET("/ats/scores/:id", h.getScore)
	read.GET("/ats/weights", h.getWeights)
}

type scoreRequest struct {
	ResumeText     string `json:"resumeText" form:"resumeText"`
	JobDescription string `json:"jobDescription" form:"jobDescription" binding:"required"`
	FreeAnalysis   bool   `json:"freeAnalysis" form:"freeAnalysis"`
}

func (h *Handler) score(c *gin.Context) {
	var req scoreRequest
	multipart := strings.HasPrefix(c.ContentType(), "multipart/")
	var err error
	if multipart {
		err = c.ShouldBind(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		writeBindError(c, err)
		return
	}

	if multipart {
		text, ok := h.uploadedResumeText(c)
		if !ok {
			return
		}
		if text != "" {
			req.ResumeText = text
		}
	}

	callerKey := middleware.CallerKey(c)
	entitled, ok := h.entitled(c, callerKey, req.FreeAnalysis)
	if !ok {
		return
	}

	out, err := h.Svc.Score(c.Request.Context(), Request{
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
		Caller:         callerKey,
		FreeAnalysis:   req.FreeAnalysis,
		Entitled:       entitled,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("scoreId", out.ID)
	c.Set("overallScore", out.Result.OverallScore)
	respond.JSON(c, http.StatusOK, out)
}

// uploadedResumeText reads the optional "resume" file part. It writes the
// error response itself and reports false when the request is finished.
func (h *Handler) uploadedResumeText(c *gin.Context) (string, bool) {
	fh, err := c.FormFile("resume")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		respond.Error(c, http.StatusBadRequest, "invalid_input", "could not read the uploaded resume", nil)
		return "", false
	}
	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "could not read the uploaded resume", nil)
		return "", false
	}
	defer f.Close()

	text, err := extract.ResumeText(c.Request.Context(), extract.Upload{
		FileName: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Body:     f,
	})
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "resume file is too large", gin.H{"maxBytes": extract.MaxUploadBytes})
		case errors.Is(err, extract.ErrUnsupportedType):
			respond.Error(c, http.StatusBadRequest, "invalid_input", "resume must be a PDF, DOCX or plain text file", nil)
		case errors.Is(err, extract.ErrNoText):
			respond.Error(c, http.StatusBadRequest, "invalid_input", "no text could be read from the resume", nil)
		default:
			respond.Error(c, http.StatusBadRequest, "invalid_input", "could not read the uploaded resume", nil)
		}
		return "", false
	}
	return text, true
}

func (h *Handler) entitled(c *gin.Context, callerKey string, free bool) (bool, bool) {
	if free || h.Entitlements == nil {
		return true, true
	}
	ok, err := h.Entitlements.Allowed(c.Request.Context(), callerKey, entitlement.ToolATSScore)
	if err != nil {
		telemetry.Error("entitlement.check_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err,
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check entitlement", nil)
		return false, false
	}
	return ok, true
}

func (h *Handler) getScore(c *gin.Context) {
	id := c.Param("id")
	rec, err := h.Svc.Get(c.Request.Context(), id, middleware.CallerKey(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "score not found", nil)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch score", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, rec)
}

// listScores returns the caller's history. Guests share addresses, so the
// route requires a signed-in identity.
func (h *Handler) listScores(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	recs, err := h.Svc.List(c.Request.Context(), middleware.CallerKey(c), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list scores", nil)
		return
	}
	if recs == nil {
		recs = []Record{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"items": recs})
}

func (h *Handler) getWeights(c *gin.Context) {
	respond.JSON(c, http.StatusOK, h.Svc.Weights())
}

func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]map[string]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, map[string]string{"field": fe.Field(), "issue": fe.Tag()})
		}
		respond.Error(c, http.StatusBadRequest, "invalid_input", "request validation failed", details)
		return
	}
	respond.Error(c, http.StatusBadRequest, "invalid_input", "invalid request body", nil)
}

// writeError maps service failures onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to score resume", nil)
		return
	}
	switch e.Kind {
	case KindInvalidInput:
		respond.Error(c, http.StatusBadRequest, string(e.Kind), e.Message, nil)
	case KindAccessDenied:
		respond.Error(c, http.StatusPaymentRequired, string(e.Kind), e.Message, nil)
	case KindRateLimited:
		middleware.WriteRateLimited(c, e.RetryAfter)
	case KindExtractionFailed:
		respond.Error(c, http.StatusBadGateway, string(e.Kind), e.Message, nil)
	case KindUpstreamUnavailable:
		respond.Error(c, http.StatusServiceUnavailable, string(e.Kind), e.Message, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to score resume", nil)
	}
}
