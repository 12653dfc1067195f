package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/plan"
	"github.com/Iron-Ham/designctl/internal/workspace"
)

var statusCmd = &cobra.Command{
	Use:   "status <planPath>",
	Short: "Report plan existence and per-status node counts",
	Long: `Reads the plan document and reports whether it exists, its schema
version, whether the cycle is a resume (some nodes already past pending)
and the count of nodes in each status.

Always exits zero: problems are reported inside the JSON object so that
callers can parse stdout unconditionally.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationFailSoft: "true"},
	RunE:        runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	doc, _, err := loadPlan(args[0])
	if err != nil {
		extra := map[string]any{"exists": errors.CodeOf(err) != errors.CodeNotFound}
		if errors.CodeOf(err) == errors.CodeBadSchema {
			// The version that was found lets callers separate "plan
			// too old" from "no plan" without parsing the detail text.
			var header struct {
				SchemaVersion int `json:"schemaVersion"`
			}
			if readErr := workspace.ReadJSON(args[0], &header); readErr == nil {
				extra["schemaVersion"] = header.SchemaVersion
			}
		}
		return failSoft(cmd, err, extra)
	}
	if len(doc.Nodes) == 0 {
		return failSoft(cmd,
			errors.NewCommand(errors.CodeEmptyNodes, "plan has no nodes"),
			map[string]any{"exists": true})
	}

	isResume := false
	for i := range doc.Nodes {
		if doc.Nodes[i].Status != plan.StatusPending {
			isResume = true
			break
		}
	}

	return ok(cmd, map[string]any{
		"exists":        true,
		"schemaVersion": doc.SchemaVersion,
		"isResume":      isResume,
		"allTerminal":   doc.AllTerminal(),
		"counts":        doc.Counts(),
	})
}
