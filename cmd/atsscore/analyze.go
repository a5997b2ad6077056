package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ats-backend/internal/bootstrap"
	"ats-backend/internal/extract"
	"ats-backend/internal/extraction"
	"ats-backend/internal/llm"
	"ats-backend/internal/narrative"
	"ats-backend/internal/scoring"
	"ats-backend/internal/shared/telemetry"
)

var (
	analyzeResumeFile     string
	analyzeJDFile         string
	analyzeSaveExtraction string
	analyzeNarrative      bool
	analyzeFormat         string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Extract and score a résumé file against a job description file",
	Long:  "Analyze reads a résumé (PDF, DOCX or text) and a job description, extracts both with the configured model and prints the composite score.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAnalyze(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeResumeFile, "resume", "r", "", "path to the résumé (pdf, docx or txt)")
	analyzeCmd.Flags().StringVar(&analyzeJDFile, "jd", "", "path to the job description text")
	analyzeCmd.Flags().StringVar(&analyzeSaveExtraction, "save-extraction", "", "write the extraction to this path for offline scoring")
	analyzeCmd.Flags().BoolVar(&analyzeNarrative, "narrative", false, "also generate the written assessment")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", formatText, "output format: text or json")
	_ = analyzeCmd.MarkFlagRequired("resume")
	_ = analyzeCmd.MarkFlagRequired("jd")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := checkFormat(analyzeFormat); err != nil {
		return err
	}

	resumeText, err := readResume(ctx, analyzeResumeFile)
	if err != nil {
		return err
	}
	jdBytes, err := os.ReadFile(analyzeJDFile)
	if err != nil {
		return fmt.Errorf("read job description: %w", err)
	}
	jobDescription := strings.TrimSpace(string(jdBytes))
	if err := extraction.CheckLengths(resumeText, jobDescription); err != nil {
		return err
	}

	cfg := loadConfig()
	if cfg.LLMProvider == "none" {
		return fmt.Errorf("analyze needs an llm provider; set --provider or LLM_PROVIDER")
	}
	client, err := bootstrap.NewLLMClient(ctx, cfg)
	if err != nil {
		return err
	}

	extractor := extraction.NewLLMExtractor(client, bootstrap.ModelName(client, cfg.LLMModel), cfg.LLMTimeout)
	result, err := extractor.Extract(ctx, resumeText, jobDescription)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	in := result.Input(resumeText)
	if analyzeSaveExtraction != "" {
		if err := saveExtraction(analyzeSaveExtraction, in); err != nil {
			return err
		}
	}

	res, err := scoring.Score(in, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}

	r := report{Score: res}
	if analyzeNarrative {
		r.Narrative = generateNarrative(ctx, client, cfg.LLMTimeout, res, in.JD)
	}
	return writeReport(out, analyzeFormat, r)
}

func readResume(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open résumé: %w", err)
	}
	defer f.Close()

	return extract.ResumeText(ctx, extract.Upload{
		FileName: filepath.Base(path),
		Body:     f,
	})
}

func saveExtraction(path string, in scoring.Input) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("encode extraction: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write extraction: %w", err)
	}
	return nil
}

// generateNarrative never fails the command; the score stands on its own.
func generateNarrative(ctx context.Context, client llm.Client, timeout time.Duration, res scoring.CompositeResult, jd scoring.JDExtraction) string {
	gen := narrative.NewLLMGenerator(client, timeout)
	text, err := gen.Generate(ctx, narrative.Input{Result: res, JD: jd})
	if err != nil {
		telemetry.Warn("analyze.narrative_failed", map[string]any{"error": err})
		return ""
	}
	return text
}
