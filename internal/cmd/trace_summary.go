package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/trace"
)

var traceSummaryCmd = &cobra.Command{
	Use:   "trace-summary <tracePath>",
	Short: "Aggregate event counts per type and per session",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceSummary,
}

func init() {
	traceSummaryCmd.Flags().String("session-id", "", "restrict the summary to one session")
	rootCmd.AddCommand(traceSummaryCmd)
}

func runTraceSummary(cmd *cobra.Command, args []string) error {
	sessionID, _ := cmd.Flags().GetString("session-id")

	var summary *trace.Summary
	var err error
	if sessionID != "" {
		summary, err = trace.SummarizeSession(args[0], sessionID)
	} else {
		summary, err = trace.Summarize(args[0])
	}
	if err != nil {
		return fail(cmd, err, nil)
	}
	return ok(cmd, map[string]any{
		"totalEntries":  summary.TotalEntries,
		"eventCounts":   summary.EventCounts,
		"sessionCount":  summary.SessionCount,
		"latestSession": summary.LatestSession,
		"skippedLines":  summary.SkippedLines,
	})
}
