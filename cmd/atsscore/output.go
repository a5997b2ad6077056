package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ats-backend/internal/scoring"
)

const (
	formatText = "text"
	formatJSON = "json"
)

type report struct {
	Score     scoring.CompositeResult `json:"score"`
	Narrative string                  `json:"narrative,omitempty"`
}

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
}

func writeReport(w io.Writer, format string, r report) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	res := r.Score
	fmt.Fprintf(w, "Overall score: %d/100 (weights %s)\n\n", res.OverallScore, res.WeightsVersion)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIMENSION\tSCORE\tWEIGHT\tMATCHED")
	for _, d := range res.Dimensions {
		matched := "-"
		if d.Total > 0 {
			matched = fmt.Sprintf("%d/%d", d.MatchedCount, d.Total)
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\n", d.Name, d.Score, d.Weight, matched)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(res.MatchedKeywords) > 0 {
		fmt.Fprintf(w, "\nMatched keywords: %s\n", strings.Join(res.MatchedKeywords, ", "))
	}
	if len(res.MissingKeywords) > 0 {
		fmt.Fprintf(w, "Missing keywords: %s\n", strings.Join(res.MissingKeywords, ", "))
	}
	if r.Narrative != "" {
		fmt.Fprintf(w, "\n%s\n", r.Narrative)
	}
	return nil
}

func writeWeights(w io.Writer, format string, table scoring.WeightTable) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(table)
	}
	fmt.Fprintf(w, "Weights %s\n\n", table.Version)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DIMENSION\tWEIGHT")
	for _, d := range scoring.Dimensions {
		fmt.Fprintf(tw, "%s\t%.2f\n", d, table.Weight(d))
	}
	return tw.Flush()
}
