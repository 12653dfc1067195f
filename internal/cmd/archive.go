package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/workspace"
)

var archiveCmd = &cobra.Command{
	Use:   "archive <dir>",
	Short: "Move the finished cycle into timestamped history",
	Long: `Moves everything in the workspace except the cross-cycle logs
(memory, trace, reflection) and prior history into history/<timestamp>/.
An empty workspace is a no-op, not an error.`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	ws := workspace.New(args[0])
	path, err := ws.Archive(time.Now())
	if err != nil {
		return fail(cmd, err, nil)
	}
	return ok(cmd, map[string]any{
		"archived":    path != "",
		"archivePath": path,
	})
}
