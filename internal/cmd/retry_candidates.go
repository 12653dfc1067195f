package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/plan"
)

var retryCandidatesCmd = &cobra.Command{
	Use:   "retry-candidates <planPath>",
	Short: "List failed nodes with attempts left in the retry budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetryCandidates,
}

func init() {
	rootCmd.AddCommand(retryCandidatesCmd)
}

func runRetryCandidates(cmd *cobra.Command, args []string) error {
	doc, cfg, err := loadPlan(args[0])
	if err != nil {
		return fail(cmd, err, nil)
	}

	return ok(cmd, map[string]any{
		"candidates": plan.RetryCandidates(doc, cfg.Plan.RetryBudget),
		"budget":     cfg.Plan.RetryBudget,
	})
}
