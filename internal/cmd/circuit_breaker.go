package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/plan"
)

var circuitBreakerCmd = &cobra.Command{
	Use:   "circuit-breaker <planPath>",
	Short: "Evaluate whether the run has failed badly enough to abort",
	Long: `Computes the fraction of failed, blocked and skipped nodes over all
nodes that haven't completed. shouldAbort is a whole-run signal: the
dispatcher should stop launching work, it is not a per-node failure.
Plans at or below the minimum node count are exempt.`,
	Args: cobra.ExactArgs(1),
	RunE: runCircuitBreaker,
}

func init() {
	rootCmd.AddCommand(circuitBreakerCmd)
}

func runCircuitBreaker(cmd *cobra.Command, args []string) error {
	doc, cfg, err := loadPlan(args[0])
	if err != nil {
		return fail(cmd, err, nil)
	}

	verdict := plan.CircuitBreaker(doc, cfg.Plan.BreakerThreshold, cfg.Plan.BreakerMinNodes)
	return ok(cmd, map[string]any{
		"shouldAbort": verdict.ShouldAbort,
		"ratio":       verdict.Ratio,
		"exempt":      verdict.Exempt,
	})
}
