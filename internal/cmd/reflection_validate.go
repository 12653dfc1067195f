package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/reflection"
)

var reflectionValidateCmd = &cobra.Command{
	Use:   "reflection-validate",
	Short: "Validate a reflection entry from stdin without writing it",
	Args:  cobra.NoArgs,
	RunE:  runReflectionValidate,
}

func init() {
	rootCmd.AddCommand(reflectionValidateCmd)
}

func runReflectionValidate(cmd *cobra.Command, args []string) error {
	var entry reflection.Entry
	if err := decodeStdin(cmd, &entry); err != nil {
		return fail(cmd, err, nil)
	}
	if err := reflection.Validate(&entry); err != nil {
		return fail(cmd, err, nil)
	}
	return ok(cmd, nil)
}
