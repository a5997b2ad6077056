// Package extraction turns free-text résumé and job-description pairs into
// the typed records the scorer consumes. The scorer never calls a model
// itself; an Extractor is injected.
package extraction

import (
	"context"
	"fmt"
	"unicode/utf8"

	"ats-backend/internal/llm"
	"ats-backend/internal/scoring"
)

// Upper bounds on the text sent to an extractor, in characters.
const (
	MaxResumeChars         = 50000
	MaxJobDescriptionChars = 20000
)

// ErrMalformed means the extractor answered with data that failed the JSON
// schema or struct validation. It wraps llm.ErrMalformedOutput so the retry
// policy treats it as transient.
var ErrMalformed = fmt.Errorf("extraction output malformed: %w", llm.ErrMalformedOutput)

// Result is one extraction of a résumé/job-description pair.
type Result struct {
	JD         scoring.JDExtraction         `json:"jd"`
	Resume     scoring.ResumeExtraction     `json:"resume"`
	Formatting scoring.FormattingAssessment `json:"formatting"`
	Model      string                       `json:"model,omitempty"`
}

// Input pairs the extraction with the raw résumé text for scoring.
func (r Result) Input(resumeText string) scoring.Input {
	return scoring.Input{
		JD:         r.JD,
		Resume:     r.Resume,
		Formatting: r.Formatting,
		ResumeText: resumeText,
	}
}

// Extractor produces structured records from raw text.
type Extractor interface {
	Extract(ctx context.Context, resumeText, jobDescription string) (Result, error)
}

// CheckLengths reports which text, if any, exceeds the extractor limits.
func CheckLengths(resumeText, jobDescription string) error {
	if n := utf8.RuneCountInString(resumeText); n > MaxResumeChars {
		return fmt.Errorf("resume text is %d characters, limit is %d", n, MaxResumeChars)
	}
	if n := utf8.RuneCountInString(jobDescription); n > MaxJobDescriptionChars {
		return fmt.Errorf("job description is %d characters, limit is %d", n, MaxJobDescriptionChars)
	}
	return nil
}

// Static returns the same result for every call. It backs offline scoring of
// stored extraction fixtures.
type Static struct {
	Result Result
	Err    error
}

// Extract implements Extractor.
func (s Static) Extract(ctx context.Context, _, _ string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if s.Err != nil {
		return Result{}, s.Err
	}
	return s.Result, nil
}

var (
	_ Extractor = Static{}
	_ Extractor = (*LLMExtractor)(nil)
)
