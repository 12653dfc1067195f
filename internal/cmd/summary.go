package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/plan"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <planPath>",
	Short: "Summarize a plan's goal, progress and dispatchable work",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	doc, _, err := loadPlan(args[0])
	if err != nil {
		return fail(cmd, err, nil)
	}

	ready := plan.ReadySet(doc)
	if ready == nil {
		ready = []int{}
	}

	maxWave := 0
	waveCounts := map[int]int{}
	models := map[string]int{}
	for i := range doc.Nodes {
		if doc.Nodes[i].Wave > maxWave {
			maxWave = doc.Nodes[i].Wave
		}
		waveCounts[doc.Nodes[i].Wave]++
		if doc.Nodes[i].Agent != nil && doc.Nodes[i].Agent.Model != "" {
			models[doc.Nodes[i].Agent.Model]++
		}
	}

	return ok(cmd, map[string]any{
		"goal":              doc.Goal,
		"nodes":             len(doc.Nodes),
		"maxWave":           maxWave,
		"waveCounts":        waveCounts,
		"modelDistribution": models,
		"counts":            doc.Counts(),
		"readySet":          ready,
		"allTerminal":       doc.AllTerminal(),
		"progress":          doc.Progress,
	})
}
