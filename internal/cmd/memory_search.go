package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/config"
	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/memory"
)

var memorySearchCmd = &cobra.Command{
	Use:   "memory-search <memPath>",
	Short: "Retrieve the most relevant memory entries for a goal",
	Long: `Scores every entry by token overlap with the goal and keywords,
weighted by importance and recency, and returns the top matches.
Retrieval bumps each returned entry's retrieval counter; it does not
count as confirmed usage (see memory-feedback).`,
	Args: cobra.ExactArgs(1),
	RunE: runMemorySearch,
}

func init() {
	memorySearchCmd.Flags().String("goal", "", "goal text to match against (required)")
	memorySearchCmd.Flags().String("keywords", "", "additional search terms")
	memorySearchCmd.Flags().Int("limit", 0, "maximum results (default from config)")
	_ = memorySearchCmd.MarkFlagRequired("goal")
	rootCmd.AddCommand(memorySearchCmd)
}

func runMemorySearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fail(cmd, errors.Wrap(errors.CodeInternal, "failed to load config", err), nil)
	}

	goal, _ := cmd.Flags().GetString("goal")
	keywords, _ := cmd.Flags().GetString("keywords")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Memory.SearchLimit
	}

	query := strings.TrimSpace(goal + " " + keywords)
	store := memory.NewStore(args[0])
	matches, err := store.Search(query, limit, time.Now())
	if err != nil {
		return fail(cmd, err, nil)
	}
	if matches == nil {
		matches = []memory.Match{}
	}
	return ok(cmd, map[string]any{"memories": matches})
}
