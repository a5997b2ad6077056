package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ats-backend/internal/extraction"
	"ats-backend/internal/scoring"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreCommandJSON(t *testing.T) {
	out, err := execute(t, "score", "--extraction", "testdata/extraction.json", "--format", "json", "--at", "2026-05-04T10:00:00Z")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var r report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode output: %v (%s)", err, out)
	}
	if r.Score.OverallScore < 0 || r.Score.OverallScore > 100 {
		t.Fatalf("overall score out of range: %d", r.Score.OverallScore)
	}
	if r.Score.WeightsVersion != scoring.DefaultWeights.Version {
		t.Fatalf("unexpected weights version %q", r.Score.WeightsVersion)
	}
	if len(r.Score.Dimensions) != len(scoring.Dimensions) {
		t.Fatalf("expected %d dimensions, got %d", len(scoring.Dimensions), len(r.Score.Dimensions))
	}
	if !r.Score.CreatedAt.Equal(time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected --at timestamp, got %s", r.Score.CreatedAt)
	}
}

func TestScoreCommandText(t *testing.T) {
	out, err := execute(t, "score", "--extraction", "testdata/extraction.json", "--format", "text", "--at", "")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !strings.Contains(out, "Overall score:") || !strings.Contains(out, string(scoring.DimensionHardSkills)) {
		t.Fatalf("unexpected text output:\n%s", out)
	}
}

func TestScoreCommandRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"jd": {"job_title": "x"}}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := execute(t, "score", "--extraction", bad, "--format", "text", "--at", ""); err == nil {
		t.Fatalf("expected error for incomplete extraction")
	}
	if _, err := execute(t, "score", "--extraction", "testdata/extraction.json", "--format", "yaml", "--at", ""); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestSavedExtractionScoresIdentically(t *testing.T) {
	data, err := os.ReadFile("testdata/extraction.json")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	in, err := extraction.DecodeInput(data)
	if err != nil {
		t.Fatalf("DecodeInput: %v", err)
	}

	path := filepath.Join(t.TempDir(), "saved.json")
	if err := saveExtraction(path, in); err != nil {
		t.Fatalf("saveExtraction: %v", err)
	}
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved: %v", err)
	}
	again, err := extraction.DecodeInput(saved)
	if err != nil {
		t.Fatalf("DecodeInput saved: %v", err)
	}

	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	first, err := scoring.Score(in, at)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	second, err := scoring.Score(again, at)
	if err != nil {
		t.Fatalf("score saved: %v", err)
	}
	if first.OverallScore != second.OverallScore {
		t.Fatalf("expected identical scores, got %d and %d", first.OverallScore, second.OverallScore)
	}
}

func TestWeightsCommand(t *testing.T) {
	out, err := execute(t, "weights", "--format", "json")
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	var table scoring.WeightTable
	if err := json.Unmarshal([]byte(out), &table); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := table.Validate(); err != nil {
		t.Fatalf("printed weights do not validate: %v", err)
	}
}

func TestAnalyzeRequiresProvider(t *testing.T) {
	_, err := execute(t, "analyze", "--resume", "testdata/resume.txt", "--jd", "testdata/jd.txt", "--provider", "none", "--format", "text")
	if err == nil || !strings.Contains(err.Error(), "llm provider") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestReadResumeText(t *testing.T) {
	text, err := readResume(t.Context(), "testdata/resume.txt")
	if err != nil {
		t.Fatalf("readResume: %v", err)
	}
	if !strings.Contains(text, "Skills: Go, PostgreSQL, Kubernetes") {
		t.Fatalf("unexpected text %q", text)
	}
}
