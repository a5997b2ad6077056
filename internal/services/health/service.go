package health

import (
	"context"
	"time"

	"ats-backend/internal/scoring"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Status is the payload served by the health endpoint.
type Status struct {
	OK             bool   `json:"ok"`
	Database       string `json:"database"`
	ThrottleStore  string `json:"throttleStore"`
	LLMProvider    string `json:"llmProvider"`
	WeightsVersion string `json:"weightsVersion"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB            Pinger
	ThrottleStore string
	LLMProvider   string
}

// NewService constructs a new health service. A nil db reports in-memory storage.
func NewService(db Pinger, throttleStore, llmProvider string) *Service {
	return &Service{DB: db, ThrottleStore: throttleStore, LLMProvider: llmProvider}
}

// Status reports dependency health. OK is false only when a configured
// database does not answer.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		OK:             true,
		Database:       "memory",
		ThrottleStore:  s.ThrottleStore,
		LLMProvider:    s.LLMProvider,
		WeightsVersion: scoring.DefaultWeights.Version,
	}
	if s.DB == nil {
		return st
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		st.OK = false
		st.Database = "unreachable"
		return st
	}
	st.Database = "ok"
	return st
}
