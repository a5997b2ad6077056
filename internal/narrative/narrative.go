// Package narrative turns a composite score into prose feedback. Narrative is
// best-effort: callers attach it to the score but never derive numbers from it.
package narrative

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ats-backend/internal/llm"
	"ats-backend/internal/scoring"
	"ats-backend/internal/shared/telemetry"
)

//go:embed prompts/narrative_v1.txt
var promptV1 string

// maxChars caps the stored narrative.
const maxChars = 6000

// Input is what the generator may see. Résumé text is deliberately absent.
type Input struct {
	Result scoring.CompositeResult
	JD     scoring.JDExtraction
}

// Generator produces human-readable feedback for a score.
type Generator interface {
	Generate(ctx context.Context, in Input) (string, error)
}

// LLMGenerator writes the narrative with a language model.
type LLMGenerator struct {
	Client  llm.Client
	Retry   llm.RetryPolicy
	Timeout time.Duration
}

// NewLLMGenerator returns a generator using the default retry policy.
func NewLLMGenerator(client llm.Client, timeout time.Duration) *LLMGenerator {
	return &LLMGenerator{Client: client, Retry: llm.DefaultRetryPolicy(), Timeout: timeout}
}

type promptDimension struct {
	Name    scoring.Dimension `json:"name"`
	Score   int               `json:"score"`
	Weight  float64           `json:"weight"`
	Missing []string          `json:"missing,omitempty"`
}

type promptPayload struct {
	JobTitle        string            `json:"jobTitle,omitempty"`
	OverallScore    int               `json:"overallScore"`
	Dimensions      []promptDimension `json:"dimensions"`
	MissingKeywords []string          `json:"missingKeywords"`
	MatchedKeywords []string          `json:"matchedKeywords"`
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context, in Input) (string, error) {
	if g == nil || g.Client == nil {
		return "", llm.ErrNotConfigured
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	prompt, err := buildPrompt(in)
	if err != nil {
		return "", err
	}

	policy := g.Retry
	if policy.Attempts <= 0 {
		policy = llm.DefaultRetryPolicy()
	}
	start := time.Now()
	var out string
	err = policy.Do(ctx, "narrative.generate", func(ctx context.Context) error {
		text, err := g.Client.Complete(ctx, llm.Request{System: promptV1, Prompt: prompt})
		if err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return fmt.Errorf("narrative is empty: %w", llm.ErrMalformedOutput)
		}
		out = text
		return nil
	})
	if err != nil {
		return "", err
	}
	if r := []rune(out); len(r) > maxChars {
		out = string(r[:maxChars])
	}
	telemetry.Info("narrative.complete", map[string]any{
		"provider":      g.Client.Name(),
		"duration_ms":   time.Since(start).Milliseconds(),
		"overall_score": in.Result.OverallScore,
	})
	return out, nil
}

func buildPrompt(in Input) (string, error) {
	payload := promptPayload{
		JobTitle:        in.JD.JobTitle,
		OverallScore:    in.Result.OverallScore,
		Dimensions:      make([]promptDimension, 0, len(in.Result.Dimensions)),
		MissingKeywords: in.Result.MissingKeywords,
		MatchedKeywords: in.Result.MatchedKeywords,
	}
	for _, d := range in.Result.Dimensions {
		payload.Dimensions = append(payload.Dimensions, promptDimension{
			Name:    d.Name,
			Score:   d.Score,
			Weight:  d.Weight,
			Missing: d.Missing,
		})
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal narrative prompt: %w", err)
	}
	return string(b), nil
}

var _ Generator = (*LLMGenerator)(nil)
