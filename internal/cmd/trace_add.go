package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/trace"
)

var traceAddCmd = &cobra.Command{
	Use:   "trace-add <tracePath>",
	Short: "Append a trace event, best-effort",
	Long: `Appends one session event to the trace log. Trace writes are
best-effort observability: a failure is reported as ok:false but the
exit code stays zero, so a calling pipeline is never broken by a logging
problem.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationFailSoft: "true"},
	RunE:        runTraceAdd,
}

func init() {
	traceAddCmd.Flags().String("session-id", "", "session identifier (required)")
	traceAddCmd.Flags().String("skill", "", "skill in progress (required)")
	traceAddCmd.Flags().String("event", "", "event type (required)")
	traceAddCmd.Flags().String("agent", "", "agent name (required for agent-level events)")
	traceAddCmd.Flags().String("payload", "", "optional JSON payload")
	_ = traceAddCmd.MarkFlagRequired("session-id")
	_ = traceAddCmd.MarkFlagRequired("skill")
	_ = traceAddCmd.MarkFlagRequired("event")
	rootCmd.AddCommand(traceAddCmd)
}

func runTraceAdd(cmd *cobra.Command, args []string) error {
	sessionID, _ := cmd.Flags().GetString("session-id")
	skill, _ := cmd.Flags().GetString("skill")
	event, _ := cmd.Flags().GetString("event")
	agent, _ := cmd.Flags().GetString("agent")
	payload, _ := cmd.Flags().GetString("payload")

	entry := &trace.Entry{
		SessionID: sessionID,
		Skill:     skill,
		Event:     event,
		Agent:     agent,
		Timestamp: time.Now().UTC(),
	}
	if payload != "" {
		if !json.Valid([]byte(payload)) {
			return failSoft(cmd,
				errors.NewCommand(errors.CodeInvalidJSON, "payload is not valid JSON"), nil)
		}
		entry.Payload = json.RawMessage(payload)
	}

	if err := trace.Append(args[0], entry); err != nil {
		return failSoft(cmd, err, nil)
	}
	return ok(cmd, nil)
}
