package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ats-backend/internal/shared/auth"
	"ats-backend/internal/throttle"
)

func TestThrottleReturns429WithRetryAfter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := throttle.NewLimiter(throttle.NewMemoryStore(),
		throttle.Config{MaxRequests: 2, Window: time.Minute},
		throttle.WithClock(func() time.Time { return now }))

	r := gin.New()
	r.Use(Auth(), Throttle(limiter, "ats-read"))
	r.GET("/api/v1/ats/weights", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ats/weights", nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d", i+1, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ats/weights", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if got := resp.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After 60, got %q", got)
	}

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]int `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "rate_limited" || body.Error.Details["retryAfterSeconds"] != 60 {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestThrottleSeparatesAccessTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := throttle.NewLimiter(throttle.NewMemoryStore(), throttle.Config{MaxRequests: 1, Window: time.Minute})

	t.Setenv("JWT_SECRET", "test-secret")
	r := gin.New()
	r.Use(Auth(), Throttle(limiter, "ats-read"))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, purchase := range []string{"purchase:a", "purchase:b"} {
		token, err := auth.SignToolToken(purchase, "ats-score", 0)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(AccessTokenHeader, token)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", purchase, resp.Code)
		}
	}
}
