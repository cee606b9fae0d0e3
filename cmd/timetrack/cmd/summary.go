package cmd

import (
	"errors"
	"fmt"

	"github.com/psantana5/gpu-keepalive/internal/timetrack"
	"github.com/spf13/cobra"
)

var summaryOutput string

var summaryCmd = &cobra.Command{
	Use:   "summary [day|week|month|year]",
	Short: "Summarize tracked time",
	Long: `Pairs start and stop entries inside the period and prints the total and a
per-category breakdown sorted by time spent. The period defaults to day.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&summaryOutput, "output", "o", "text", "Output format: text, table or json")
}

func runSummary(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	entries, err := store().Entries()
	if errors.Is(err, timetrack.ErrNoLog) {
		fmt.Fprintln(out, "No log file found.")
		return nil
	}
	if err != nil {
		return err
	}

	name := string(timetrack.Day)
	if len(args) > 0 {
		name = args[0]
	}
	period, err := timetrack.ParsePeriod(name)
	if err != nil {
		fmt.Fprintf(out, "Invalid period: %s\n", name)
		fmt.Fprintf(out, "Valid periods: %s\n", timetrack.PeriodNames())
		return nil
	}

	summary := timetrack.Summarize(entries, period, now())

	switch summaryOutput {
	case "json":
		return summary.WriteJSON(cmd.OutOrStdout())
	case "table":
		return summary.WriteTable(cmd.OutOrStdout())
	case "text":
		return summary.WriteText(cmd.OutOrStdout())
	default:
		return fmt.Errorf("unknown output format %q (want text, table or json)", summaryOutput)
	}
}
