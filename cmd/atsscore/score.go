package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ats-backend/internal/extraction"
	"ats-backend/internal/scoring"
)

var (
	scoreExtractionFile string
	scoreFormat         string
	scoreAt             string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a stored extraction without calling a model",
	Long:  "Score reads a JSON document with jd, resume, formatting and resume_text fields (the output of analyze --save-extraction) and prints the composite score.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScore(cmd.OutOrStdout())
	},
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreExtractionFile, "extraction", "e", "", "path to the extraction JSON document")
	scoreCmd.Flags().StringVarP(&scoreFormat, "format", "f", formatText, "output format: text or json")
	scoreCmd.Flags().StringVar(&scoreAt, "at", "", "RFC 3339 timestamp to stamp on the result (default now)")
	_ = scoreCmd.MarkFlagRequired("extraction")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(out io.Writer) error {
	if err := checkFormat(scoreFormat); err != nil {
		return err
	}
	at := time.Now().UTC()
	if scoreAt != "" {
		parsed, err := time.Parse(time.RFC3339, scoreAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
		at = parsed
	}

	data, err := os.ReadFile(scoreExtractionFile)
	if err != nil {
		return fmt.Errorf("read extraction: %w", err)
	}
	in, err := extraction.DecodeInput(data)
	if err != nil {
		return err
	}
	res, err := scoring.Score(in, at)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}
	return writeReport(out, scoreFormat, report{Score: res})
}
