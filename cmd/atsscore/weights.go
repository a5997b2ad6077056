package main

import (
	"github.com/spf13/cobra"

	"ats-backend/internal/scoring"
)

var weightsFormat string

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Print the active dimension weight table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := checkFormat(weightsFormat); err != nil {
			return err
		}
		return writeWeights(cmd.OutOrStdout(), weightsFormat, scoring.DefaultWeights)
	},
}

func init() {
	weightsCmd.Flags().StringVarP(&weightsFormat, "format", "f", formatText, "output format: text or json")
	rootCmd.AddCommand(weightsCmd)
}
