package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/trace"
)

var traceSearchCmd = &cobra.Command{
	Use:   "trace-search <tracePath>",
	Short: "Search trace events by session, skill, event and agent",
	Long: `All provided filters are combined with AND; omitted filters match
everything. Results come back in file order. Malformed log lines are
skipped and counted, never fatal.`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceSearch,
}

func init() {
	traceSearchCmd.Flags().String("session-id", "", "filter by session")
	traceSearchCmd.Flags().String("skill", "", "filter by skill")
	traceSearchCmd.Flags().String("event", "", "filter by event type")
	traceSearchCmd.Flags().String("agent", "", "filter by agent")
	traceSearchCmd.Flags().Int("limit", 0, "maximum results (0 = unlimited)")
	rootCmd.AddCommand(traceSearchCmd)
}

func runTraceSearch(cmd *cobra.Command, args []string) error {
	filter := trace.Filter{}
	filter.SessionID, _ = cmd.Flags().GetString("session-id")
	filter.Skill, _ = cmd.Flags().GetString("skill")
	filter.Event, _ = cmd.Flags().GetString("event")
	filter.Agent, _ = cmd.Flags().GetString("agent")
	limit, _ := cmd.Flags().GetInt("limit")

	entries, skipped, err := trace.Search(args[0], filter, limit)
	if err != nil {
		return fail(cmd, err, nil)
	}
	if entries == nil {
		entries = []trace.Entry{}
	}
	return ok(cmd, map[string]any{
		"entries":      entries,
		"skippedLines": skipped,
	})
}
