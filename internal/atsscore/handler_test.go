package atsscore

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"ats-backend/internal/entitlement"
	"ats-backend/internal/extraction"
	"ats-backend/internal/llm"
	"ats-backend/internal/shared/auth"
	"ats-backend/internal/shared/server/middleware"
	"ats-backend/internal/throttle"
)

type recordingExtractor struct {
	mu         sync.Mutex
	resumeText string
	result     extraction.Result
	err        error
}

func (e *recordingExtractor) Extract(_ context.Context, resumeText, _ string) (extraction.Result, error) {
	e.mu.Lock()
	e.resumeText = resumeText
	e.mu.Unlock()
	return e.result, e.err
}

func newTestRouter(t *testing.T, svc *Service, ent *entitlement.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, ent, nil).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body.Error.Code
}

func scoreBody() map[string]any {
	return map[string]any{
		"resumeText":     "Backend engineer with Go and PostgreSQL.",
		"jobDescription": "Senior Backend Engineer: Go, PostgreSQL, Kubernetes.",
	}
}

func TestHandlerScoreJSON(t *testing.T) {
	svc, _ := newTestService(t, &countingExtractor{result: fixtureResult()}, nil)
	r := newTestRouter(t, svc, nil)

	w := postJSON(r, "/api/v1/ats/score", scoreBody())
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var out Outcome
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID == "" || out.Result.WeightsVersion != "v1" || len(out.Result.Dimensions) != 9 {
		t.Fatalf("unexpected outcome %+v", out)
	}

	get := httptest.NewRecorder()
	r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/v1/ats/scores/"+out.ID, nil))
	if get.Code != http.StatusOK {
		t.Fatalf("expected stored score to be readable, got %d", get.Code)
	}
}

func TestHandlerScoreRequiresJobDescription(t *testing.T) {
	svc, _ := newTestService(t, &countingExtractor{result: fixtureResult()}, nil)
	r := newTestRouter(t, svc, nil)

	w := postJSON(r, "/api/v1/ats/score", map[string]any{"resumeText": "x"})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "invalid_input" {
		t.Fatalf("expected 400 invalid_input, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandlerScoreEntitlementGate(t *testing.T) {
	svc, _ := newTestService(t, &countingExtractor{result: fixtureResult()}, nil)
	ent := entitlement.NewService()
	r := newTestRouter(t, svc, ent)

	w := postJSON(r, "/api/v1/ats/score", scoreBody())
	if w.Code != http.StatusPaymentRequired || errorCode(t, w) != string(KindAccessDenied) {
		t.Fatalf("expected 402 access_denied, got %d: %s", w.Code, w.Body.String())
	}

	free := scoreBody()
	free["freeAnalysis"] = true
	if w := postJSON(r, "/api/v1/ats/score", free); w.Code != http.StatusOK {
		t.Fatalf("expected free analysis to pass, got %d", w.Code)
	}

	if _, err := ent.Grant(context.Background(), throttle.CallerKey("", "", "192.0.2.1"), entitlement.ToolATSScore, time.Hour); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if w := postJSON(r, "/api/v1/ats/score", scoreBody()); w.Code != http.StatusOK {
		t.Fatalf("expected entitled caller to pass, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandlerScoreErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"malformed", extraction.ErrMalformed, http.StatusBadGateway, "extraction_failed"},
		{"quota", llm.ErrQuota, http.StatusServiceUnavailable, "upstream_unavailable"},
		{"canceled", context.Canceled, http.StatusRequestTimeout, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, &countingExtractor{err: tt.err}, nil)
			w := postJSON(newTestRouter(t, svc, nil), "/api/v1/ats/score", scoreBody())
			if w.Code != tt.status || errorCode(t, w) != tt.code {
				t.Fatalf("expected %d %s, got %d: %s", tt.status, tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandlerScoreRateLimited(t *testing.T) {
	now := testNow
	limiter := throttle.NewLimiter(throttle.NewMemoryStore(), throttle.Config{MaxRequests: 1, Window: 30 * time.Minute}, throttle.WithClock(func() time.Time { return now }))
	svc, _ := newTestService(t, &countingExtractor{result: fixtureResult()}, limiter)
	r := newTestRouter(t, svc, nil)

	if w := postJSON(r, "/api/v1/ats/score", scoreBody()); w.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", w.Code)
	}
	now = now.Add(10 * time.Minute)
	w := postJSON(r, "/api/v1/ats/score", scoreBody())
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1200" {
		t.Fatalf("expected Retry-After 1200, got %q", got)
	}
}

func TestHandlerScoreMultipartUpload(t *testing.T) {
	ex := &recordingExtractor{result: fixtureResult()}
	svc, _ := newTestService(t, ex, nil)
	r := newTestRouter(t, svc, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("resume", "resume.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte("Jane Doe\n\n\nGo   developer")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_ = mw.WriteField("jobDescription", "Go developer")
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ats/score", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ex.resumeText != "Jane Doe\n\nGo developer" {
		t.Fatalf("expected extracted upload text, got %q", ex.resumeText)
	}
}

func TestHandlerScoreRejectsUnsupportedUpload(t *testing.T) {
	svc, _ := newTestService(t, &countingExtractor{result: fixtureResult()}, nil)
	r := newTestRouter(t, svc, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("resume", "photo.png")
	_, _ = fw.Write([]byte("\x89PNG\r\n"))
	_ = mw.WriteField("jobDescription", "Go developer")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ats/score", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "PDF, DOCX") {
		t.Fatalf("expected 400 for unsupported upload, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandlerGetWeightsAndMissingScore(t *testing.T) {
	svc, _ := newTestService(t, &countingExtractor{result: fixtureResult()}, nil)
	r := newTestRouter(t, svc, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ats/weights", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"version":"v1"`) {
		t.Fatalf("unexpected weights response %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ats/scores/not-a-uuid", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandlerListScoresRequiresSignIn(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := auth.SignJWT(auth.Claims{
		Email:            "Ana@Example.com",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc, _ := newTestService(t, &countingExtractor{result: fixtureResult()}, nil)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", middleware.Auth())
	NewHandler(svc, nil, nil).RegisterRoutes(api)

	b, _ := json.Marshal(scoreBody())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ats/score", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	guest := httptest.NewRecorder()
	r.ServeHTTP(guest, httptest.NewRequest(http.MethodGet, "/api/v1/ats/scores", nil))
	if guest.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for guest, got %d", guest.Code)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/ats/scores?limit=5", nil)
	listReq.Header.Set("Authorization", "Bearer "+token)
	list := httptest.NewRecorder()
	r.ServeHTTP(list, listReq)
	if list.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", list.Code, list.Body.String())
	}
	var body struct {
		Items []Record `json:"items"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 1 {
		t.Fatalf("expected 1 stored score, got %d", len(body.Items))
	}
}
