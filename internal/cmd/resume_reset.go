package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/plan"
)

var resumeResetCmd = &cobra.Command{
	Use:   "resume-reset <planPath>",
	Short: "Return in_progress nodes to pending after an interrupted cycle",
	Long: `An interrupted cycle can leave nodes claimed but never finished.
Resume-reset returns every in_progress node to pending (counting the
abandoned attempt) and reports the files those nodes may have half
written: declared creates to delete, declared modifies to revert.`,
	Args: cobra.ExactArgs(1),
	RunE: runResumeReset,
}

func init() {
	rootCmd.AddCommand(resumeResetCmd)
}

func runResumeReset(cmd *cobra.Command, args []string) error {
	doc, _, err := loadPlan(args[0])
	if err != nil {
		return fail(cmd, err, nil)
	}

	reset := plan.ResumeReset(doc)
	if len(reset) > 0 {
		if err := plan.Save(args[0], doc); err != nil {
			return fail(cmd, err, nil)
		}
	}

	toDelete, toRevert := []string{}, []string{}
	for _, i := range reset {
		toDelete = append(toDelete, doc.Nodes[i].Metadata.Files.Create...)
		toRevert = append(toRevert, doc.Nodes[i].Metadata.Files.Modify...)
	}

	return ok(cmd, map[string]any{
		"reset":           reset,
		"filesToDelete":   toDelete,
		"filesToRevert":   toRevert,
		"noWorkRemaining": len(reset) == 0 && doc.AllTerminal(),
	})
}
