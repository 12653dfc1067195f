package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/memory"
)

var memoryFeedbackCmd = &cobra.Command{
	Use:   "memory-feedback <memPath>",
	Short: "Boost or decay an entry's importance based on confirmed outcome",
	Long: `Records whether a retrieved memory actually helped. Helpful feedback
boosts importance, unhelpful feedback decays it, both clamped to 1-10;
the usage counter advances either way. This is the closed feedback loop:
usage is tied to confirmed helpfulness, not mere retrieval.`,
	Args: cobra.ExactArgs(1),
	RunE: runMemoryFeedback,
}

func init() {
	memoryFeedbackCmd.Flags().String("id", "", "entry id (required)")
	memoryFeedbackCmd.Flags().Bool("helpful", true, "whether the entry helped")
	_ = memoryFeedbackCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(memoryFeedbackCmd)
}

func runMemoryFeedback(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("id")
	helpful, _ := cmd.Flags().GetBool("helpful")

	store := memory.NewStore(args[0])
	entry, err := store.Feedback(id, helpful)
	if err != nil {
		return fail(cmd, err, nil)
	}
	return ok(cmd, map[string]any{
		"id":         entry.ID,
		"importance": entry.Importance,
		"usageCount": entry.UsageCount,
	})
}
