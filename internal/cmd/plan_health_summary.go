package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/config"
	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/plan"
	"github.com/Iron-Ham/designctl/internal/reflection"
	"github.com/Iron-Ham/designctl/internal/workspace"
)

var planHealthSummaryCmd = &cobra.Command{
	Use:   "plan-health-summary <dir>",
	Short: "Summarize recent cycles and the unresolved improvement backlog",
	Long: `Reads the last few reflection entries from the workspace and reports
recent run outcomes, the goal-achievement rate, and deduplicated
improvement items with failure-sourced items first.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlanHealthSummary,
}

func init() {
	rootCmd.AddCommand(planHealthSummaryCmd)
}

func runPlanHealthSummary(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fail(cmd, errors.Wrap(errors.CodeInternal, "failed to load config", err), nil)
	}

	ws := workspace.New(args[0])
	summary, err := reflection.Summarize(ws.ReflectionPath(), cfg.Reflection.HealthWindow)
	if err != nil {
		return fail(cmd, err, nil)
	}

	// The current plan is optional context: a workspace with only logs
	// still has a meaningful reflection history.
	planStatus := map[string]any{"exists": false}
	if doc, loadErr := plan.Load(ws.PlanPath(), cfg.Plan.SchemaVersion); loadErr == nil {
		planStatus = map[string]any{
			"exists":      true,
			"counts":      doc.Counts(),
			"allTerminal": doc.AllTerminal(),
		}
	}

	return ok(cmd, map[string]any{
		"plan":                   planStatus,
		"recentRuns":             summary.RecentRuns,
		"unresolvedImprovements": summary.UnresolvedImprovements,
		"goalAchievementRate":    summary.GoalAchievementRate,
	})
}
