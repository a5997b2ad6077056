// Package atsscore is the public scoring operation: it validates the request,
// applies the entitlement and throttle gates, extracts structured records,
// computes the composite score and keeps an audit record.
package atsscore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"ats-backend/internal/extraction"
	"ats-backend/internal/llm"
	"ats-backend/internal/narrative"
	"ats-backend/internal/scoring"
	"ats-backend/internal/shared/metrics"
	"ats-backend/internal/shared/telemetry"
	"ats-backend/internal/throttle"
)

// Service scores résumé/job-description pairs.
type Service struct {
	Extractor extraction.Extractor
	Scorer    *scoring.Scorer
	Limiter   *throttle.Limiter
	Narrative narrative.Generator
	Repo      Repo
	Now       func() time.Time
	NewID     func() string
}

// NewService wires a Service with the default weight table. Limiter,
// narrative generator and repo are optional.
func NewService(extractor extraction.Extractor, limiter *throttle.Limiter, gen narrative.Generator, repo Repo) (*Service, error) {
	scorer, err := scoring.NewScorer(scoring.DefaultWeights)
	if err != nil {
		return nil, err
	}
	return &Service{
		Extractor: extractor,
		Scorer:    scorer,
		Limiter:   limiter,
		Narrative: gen,
		Repo:      repo,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}, nil
}

// Score runs the full pipeline for one request. Failures are returned as
// *Error; a narrative failure never fails the call.
func (s *Service) Score(ctx context.Context, req Request) (Outcome, error) {
	start := time.Now()
	out, err := s.score(ctx, req)
	switch KindOf(err) {
	case "":
		if err == nil {
			metrics.IncScoreCompleted()
			metrics.ObserveOverallScore(out.Result.OverallScore)
			metrics.ObserveScoreDurationMs(float64(time.Since(start).Milliseconds()))
		} else {
			metrics.IncScoreFailed()
		}
	case KindRateLimited:
		metrics.IncScoreRateLimited()
	case KindAccessDenied:
		metrics.IncScoreAccessDenied()
	default:
		metrics.IncScoreFailed()
	}
	return out, err
}

func (s *Service) score(ctx context.Context, req Request) (Outcome, error) {
	resumeText := strings.TrimSpace(req.ResumeText)
	jobDescription := strings.TrimSpace(req.JobDescription)
	if resumeText == "" {
		return Outcome{}, newError(KindInvalidInput, "resume text is required", nil)
	}
	if jobDescription == "" {
		return Outcome{}, newError(KindInvalidInput, "job description is required", nil)
	}
	if err := extraction.CheckLengths(resumeText, jobDescription); err != nil {
		return Outcome{}, newError(KindInvalidInput, err.Error(), nil)
	}
	if !req.FreeAnalysis && !req.Entitled {
		return Outcome{}, newError(KindAccessDenied, "an active ATS tool entitlement is required", nil)
	}

	caller := strings.TrimSpace(req.Caller)
	if caller == "" {
		caller = "anonymous"
	}
	if err := s.checkThrottle(ctx, caller); err != nil {
		return Outcome{}, err
	}

	if s.Extractor == nil {
		return Outcome{}, newError(KindUpstreamUnavailable, "no extractor is configured", llm.ErrNotConfigured)
	}
	extracted, err := s.Extractor.Extract(ctx, resumeText, jobDescription)
	if err != nil {
		return Outcome{}, classifyExtraction(err)
	}

	now := s.now()
	result, err := s.scorer().Score(extracted.Input(resumeText), now)
	if err != nil {
		// Extraction passed validation, so anything the scorer rejects is
		// still bad extractor output.
		return Outcome{}, newError(KindExtractionFailed, "extracted data could not be scored", err)
	}

	out := Outcome{ID: s.newID(), Result: result}
	if s.Narrative != nil {
		text, err := s.Narrative.Generate(ctx, narrative.Input{Result: result, JD: extracted.JD})
		if err != nil {
			metrics.IncNarrativeFailed()
			out.NarrativeError = narrativeErrorMessage(err)
			telemetry.Warn("ats.narrative_failed", map[string]any{
				"score_id": out.ID,
				"error":    err,
			})
		} else {
			out.Narrative = text
		}
	}

	if s.Repo != nil {
		rec := Record{
			ID:             out.ID,
			CallerKey:      caller,
			FreeAnalysis:   req.FreeAnalysis,
			Result:         result,
			Narrative:      out.Narrative,
			NarrativeError: out.NarrativeError,
			Model:          extracted.Model,
			PromptVersion:  extraction.PromptVersion,
			CreatedAt:      now,
		}
		if err := s.Repo.Create(ctx, rec); err != nil {
			telemetry.Error("ats.audit_failed", map[string]any{
				"score_id": out.ID,
				"error":    err,
			})
		} else {
			out.Stored = true
		}
	}

	telemetry.Info("ats.score", map[string]any{
		"score_id":        out.ID,
		"caller_key":      caller,
		"free_analysis":   req.FreeAnalysis,
		"overall_score":   result.OverallScore,
		"weights_version": result.WeightsVersion,
		"narrative":       out.Narrative != "",
	})
	return out, nil
}

func (s *Service) checkThrottle(ctx context.Context, caller string) error {
	if s.Limiter == nil {
		return nil
	}
	d, err := s.Limiter.Allow(ctx, caller, EndpointScore)
	if err != nil {
		metrics.IncThrottleStoreError()
		telemetry.Warn("throttle.store_failed", map[string]any{
			"endpoint": EndpointScore,
			"error":    err,
		})
		return nil
	}
	if !d.Allowed {
		e := newError(KindRateLimited, "too many scoring requests", nil)
		e.RetryAfter = d.RetryAfterSeconds()
		return e
	}
	return nil
}

// Get returns a stored record owned by callerKey.
func (s *Service) Get(ctx context.Context, id, callerKey string) (Record, error) {
	if s.Repo == nil {
		return Record{}, ErrNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	rec, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.CallerKey != callerKey {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns callerKey's records newest first.
func (s *Service) List(ctx context.Context, callerKey string, limit, offset int) ([]Record, error) {
	if s.Repo == nil {
		return []Record{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListByCaller(ctx, callerKey, limit, offset)
}

// Weights returns the active weight table.
func (s *Service) Weights() scoring.WeightTable {
	return s.scorer().Weights()
}

func (s *Service) scorer() *scoring.Scorer {
	if s.Scorer != nil {
		return s.Scorer
	}
	scorer, _ := scoring.NewScorer(scoring.DefaultWeights)
	return scorer
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// classifyExtraction maps extractor failures onto the public taxonomy.
// Provider outages, quota and credential problems are upstream failures;
// everything else means the extractor could not produce usable data.
func classifyExtraction(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, llm.ErrAuth), errors.Is(err, llm.ErrQuota), errors.Is(err, llm.ErrNotConfigured):
		return newError(KindUpstreamUnavailable, "the scoring provider is not available", err)
	case errors.Is(err, llm.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return newError(KindUpstreamUnavailable, "the scoring provider is temporarily unavailable", err)
	default:
		return newError(KindExtractionFailed, "could not read the resume or job description, try again", err)
	}
}

func narrativeErrorMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrQuota), errors.Is(err, llm.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return "narrative unavailable"
	default:
		return "narrative failed"
	}
}
