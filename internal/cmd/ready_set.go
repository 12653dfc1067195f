package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/plan"
)

var readySetCmd = &cobra.Command{
	Use:   "ready-set <planPath>",
	Short: "List pending nodes whose dependencies are all completed",
	Long: `The ready set is the unit of dispatch: everything in it can be
started as one batch because no member depends on another.`,
	Args: cobra.ExactArgs(1),
	RunE: runReadySet,
}

func init() {
	rootCmd.AddCommand(readySetCmd)
}

func runReadySet(cmd *cobra.Command, args []string) error {
	doc, _, err := loadPlan(args[0])
	if err != nil {
		return fail(cmd, err, nil)
	}

	ready := plan.ReadySet(doc)
	if ready == nil {
		ready = []int{}
	}
	return ok(cmd, map[string]any{"ready": ready})
}
