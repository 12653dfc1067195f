package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/selftest"
)

var selfTestCmd = &cobra.Command{
	Use:   "self-test",
	Short: "Run the engine against synthetic fixtures in a scratch directory",
	RunE:  runSelfTest,
}

func init() {
	rootCmd.AddCommand(selfTestCmd)
}

func runSelfTest(cmd *cobra.Command, args []string) error {
	results, err := selftest.Run()
	if err != nil {
		return fail(cmd, err, nil)
	}

	passed, failed := 0, 0
	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	payload := map[string]any{
		"ok":     failed == 0,
		"passed": passed,
		"failed": failed,
		"checks": results,
	}
	if err := emit(cmd, payload); err != nil {
		return err
	}
	if failed > 0 {
		return errReported
	}
	return nil
}
