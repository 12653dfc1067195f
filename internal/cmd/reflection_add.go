package cmd

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/reflection"
)

var reflectionAddCmd = &cobra.Command{
	Use:   "reflection-add <reflPath>",
	Short: "Append a validated reflection entry",
	Long: `Builds a reflection entry from the flags plus an optional JSON
evaluation body on stdin ({"whatWorked", "whatFailed", "doNextTime",
"promptFixes"}). A non-empty whatFailed with no promptFixes is rejected:
a failure observation without an actionable fix never enters the log.`,
	Args: cobra.ExactArgs(1),
	RunE: runReflectionAdd,
}

func init() {
	reflectionAddCmd.Flags().String("skill", "", "skill that ran (required)")
	reflectionAddCmd.Flags().String("goal", "", "goal of the cycle (required)")
	reflectionAddCmd.Flags().String("outcome", "", "completed, partial, failed or aborted (required)")
	reflectionAddCmd.Flags().Bool("goal-achieved", false, "whether the goal was achieved")
	_ = reflectionAddCmd.MarkFlagRequired("skill")
	_ = reflectionAddCmd.MarkFlagRequired("goal")
	_ = reflectionAddCmd.MarkFlagRequired("outcome")
	rootCmd.AddCommand(reflectionAddCmd)
}

func runReflectionAdd(cmd *cobra.Command, args []string) error {
	skill, _ := cmd.Flags().GetString("skill")
	goal, _ := cmd.Flags().GetString("goal")
	outcome, _ := cmd.Flags().GetString("outcome")
	achieved, _ := cmd.Flags().GetBool("goal-achieved")

	entry := &reflection.Entry{
		Skill:        skill,
		Goal:         goal,
		Outcome:      outcome,
		GoalAchieved: achieved,
		Timestamp:    time.Now().UTC(),
	}

	// The evaluation body is optional: a bare entry records outcome only.
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fail(cmd, errors.Wrap(errors.CodeInvalidInput, "failed to read stdin", err), nil)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entry.Evaluation); err != nil {
			return fail(cmd, errors.Wrap(errors.CodeInvalidJSON, "invalid evaluation JSON on stdin", err), nil)
		}
	}

	if err := reflection.Add(args[0], entry); err != nil {
		return fail(cmd, err, nil)
	}
	return ok(cmd, nil)
}
