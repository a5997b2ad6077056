package extraction

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ats-backend/internal/llm"
	"ats-backend/internal/scoring"
	"ats-backend/internal/shared/telemetry"
)

// LLMExtractor extracts both records with a language model. The job
// description and the résumé are extracted concurrently under one timeout.
type LLMExtractor struct {
	Client  llm.Client
	Model   string
	Retry   llm.RetryPolicy
	Timeout time.Duration
}

// NewLLMExtractor returns an extractor using the default retry policy.
func NewLLMExtractor(client llm.Client, model string, timeout time.Duration) *LLMExtractor {
	return &LLMExtractor{
		Client:  client,
		Model:   model,
		Retry:   llm.DefaultRetryPolicy(),
		Timeout: timeout,
	}
}

// Extract implements Extractor. Replies that fail validation are retried
// under the retry policy; the final failure wraps ErrMalformed.
func (e *LLMExtractor) Extract(ctx context.Context, resumeText, jobDescription string) (Result, error) {
	if e == nil || e.Client == nil {
		return Result{}, llm.ErrNotConfigured
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()
	var (
		jd         scoring.JDExtraction
		resume     scoring.ResumeExtraction
		formatting scoring.FormattingAssessment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		jd, err = e.extractJD(gctx, jobDescription)
		if err != nil {
			return fmt.Errorf("extract job description: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		resume, formatting, err = e.extractResume(gctx, resumeText)
		if err != nil {
			return fmt.Errorf("extract resume: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		telemetry.Warn("extraction.failed", map[string]any{
			"provider":    e.Client.Name(),
			"model":       e.Model,
			"duration_ms": time.Since(start).Milliseconds(),
			"error":       err,
		})
		return Result{}, err
	}

	telemetry.Info("extraction.complete", map[string]any{
		"provider":           e.Client.Name(),
		"model":              e.Model,
		"prompt_version":     PromptVersion,
		"duration_ms":        time.Since(start).Milliseconds(),
		"jd_hard_skills":     len(jd.HardSkills),
		"resume_hard_skills": len(resume.HardSkills),
	})
	return Result{JD: jd, Resume: resume, Formatting: formatting, Model: e.Model}, nil
}

func (e *LLMExtractor) extractJD(ctx context.Context, text string) (scoring.JDExtraction, error) {
	var out scoring.JDExtraction
	err := e.retry().Do(ctx, "extract.jd", func(ctx context.Context) error {
		raw, err := e.Client.Complete(ctx, llm.Request{System: jdPromptV1, Prompt: text, JSON: true})
		if err != nil {
			return err
		}
		out, err = DecodeJD(raw)
		return err
	})
	return out, err
}

func (e *LLMExtractor) extractResume(ctx context.Context, text string) (scoring.ResumeExtraction, scoring.FormattingAssessment, error) {
	var (
		resume     scoring.ResumeExtraction
		formatting scoring.FormattingAssessment
	)
	err := e.retry().Do(ctx, "extract.resume", func(ctx context.Context) error {
		raw, err := e.Client.Complete(ctx, llm.Request{System: resumePromptV1, Prompt: text, JSON: true})
		if err != nil {
			return err
		}
		resume, formatting, err = DecodeResume(raw, text)
		return err
	})
	return resume, formatting, err
}

func (e *LLMExtractor) retry() llm.RetryPolicy {
	if e.Retry.Attempts <= 0 {
		return llm.DefaultRetryPolicy()
	}
	return e.Retry
}
