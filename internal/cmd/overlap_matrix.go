package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/plan"
)

var overlapMatrixCmd = &cobra.Command{
	Use:   "overlap-matrix <planPath>",
	Short: "List node pairs with intersecting write sets and no edge between them",
	Args:  cobra.ExactArgs(1),
	RunE:  runOverlapMatrix,
}

func init() {
	rootCmd.AddCommand(overlapMatrixCmd)
}

func runOverlapMatrix(cmd *cobra.Command, args []string) error {
	doc, _, err := loadPlan(args[0])
	if err != nil {
		return fail(cmd, err, nil)
	}

	pairs := plan.OverlapMatrix(doc.Nodes)
	if pairs == nil {
		pairs = []plan.OverlapPair{}
	}
	return ok(cmd, map[string]any{"pairs": pairs})
}
