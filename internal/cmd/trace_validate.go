package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/trace"
)

var traceValidateCmd = &cobra.Command{
	Use:   "trace-validate <tracePath>",
	Short: "Check every entry in a trace log against the schema",
	Long: `Parses the trace log line by line and validates each entry's required
fields and event vocabulary. Lines that are not valid JSON are counted
as malformed; parseable entries that fail validation are listed with
their position and the reason. The log itself is never modified.`,
	Args: cobra.ExactArgs(1),
	RunE: runTraceValidate,
}

func init() {
	rootCmd.AddCommand(traceValidateCmd)
}

func runTraceValidate(cmd *cobra.Command, args []string) error {
	report, err := trace.ValidateFile(args[0])
	if err != nil {
		return fail(cmd, err, nil)
	}
	return ok(cmd, map[string]any{
		"valid":     report.Invalid == 0 && report.Malformed == 0,
		"total":     report.Total,
		"validated": report.Valid,
		"invalid":   report.Invalid,
		"malformed": report.Malformed,
		"issues":    report.Issues,
	})
}
