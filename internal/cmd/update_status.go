package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/logging"
	"github.com/Iron-Ham/designctl/internal/plan"
)

var updateStatusCmd = &cobra.Command{
	Use:   "update-status <planPath>",
	Short: "Apply a batch of execution results from stdin",
	Long: `Reads a JSON array of {index, status, result} objects from stdin and
applies them to the plan: status transitions are checked, attempts are
incremented on failure, agent metadata is trimmed on completion, and
failures cascade to transitive dependents as skipped. The batch is
all-or-nothing: one bad result leaves the document untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdateStatus,
}

func init() {
	rootCmd.AddCommand(updateStatusCmd)
}

func runUpdateStatus(cmd *cobra.Command, args []string) error {
	var results []plan.Result
	if err := decodeStdin(cmd, &results); err != nil {
		return fail(cmd, err, nil)
	}

	doc, cfg, err := loadPlan(args[0])
	if err != nil {
		return fail(cmd, err, nil)
	}

	logger, logErr := logging.New(filepath.Dir(args[0]), cfg.Logging.Level)
	if logErr == nil {
		defer logger.Close()
		logging.SetDefault(logger.WithCommand("update-status"))
	}

	outcome, err := plan.ApplyResults(doc, results)
	if err != nil {
		return fail(cmd, err, nil)
	}
	if err := plan.Save(args[0], doc); err != nil {
		return fail(cmd, err, nil)
	}

	logging.Default().Info("results applied",
		"results", len(results),
		"cascaded", len(outcome.Cascaded),
		"trimmed", len(outcome.Trimmed))

	return ok(cmd, map[string]any{
		"updated":  len(results),
		"cascaded": outcome.Cascaded,
		"trimmed":  outcome.Trimmed,
	})
}
