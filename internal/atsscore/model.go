package atsscore

import (
	"time"

	"ats-backend/internal/scoring"
)

// Endpoint names used as throttle keys.
const (
	EndpointScore = "ats-score"
	EndpointRead  = "ats-read"
)

// Request is one scoring call. Entitled is decided by the caller before the
// request reaches the service; FreeAnalysis bypasses it but not the throttle.
type Request struct {
	ResumeText     string
	JobDescription string
	Caller         string
	FreeAnalysis   bool
	Entitled       bool
}

// Outcome is what a successful Score returns.
type Outcome struct {
	ID             string                  `json:"id"`
	Result         scoring.CompositeResult `json:"score"`
	Narrative      string                  `json:"narrative,omitempty"`
	NarrativeError string                  `json:"narrativeError,omitempty"`
	Stored         bool                    `json:"stored"`
}

// Record is the audit row kept for each score. Résumé and job-description
// text are not stored.
type Record struct {
	ID             string                  `json:"id"`
	CallerKey      string                  `json:"-"`
	FreeAnalysis   bool                    `json:"freeAnalysis"`
	Result         scoring.CompositeResult `json:"score"`
	Narrative      string                  `json:"narrative,omitempty"`
	NarrativeError string                  `json:"narrativeError,omitempty"`
	Model          string                  `json:"model,omitempty"`
	PromptVersion  string                  `json:"promptVersion,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
}
