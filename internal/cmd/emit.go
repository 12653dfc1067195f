package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/errors"
)

// errReported tells main that the command failed after its JSON error
// object was already written; the exit code is the only signal left.
var errReported = errors.New("command failed")

// emit writes payload as the command's single JSON output object.
func emit(cmd *cobra.Command, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		// Should not happen with the shapes we emit; fall back to a
		// minimal hand-built object so stdout still carries valid JSON.
		fmt.Fprintln(cmd.OutOrStdout(), `{"ok":false,"error":"internal","detail":"failed to encode result"}`)
		return errReported
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// ok emits a success object with the given extra fields.
func ok(cmd *cobra.Command, fields map[string]any) error {
	payload := map[string]any{"ok": true}
	for k, v := range fields {
		payload[k] = v
	}
	return emit(cmd, payload)
}

// fail emits a structured error object and signals a nonzero exit.
func fail(cmd *cobra.Command, err error, extra map[string]any) error {
	payload := map[string]any{
		"ok":     false,
		"error":  errors.CodeOf(err),
		"detail": errors.DetailOf(err),
	}
	for k, v := range extra {
		payload[k] = v
	}
	if emitErr := emit(cmd, payload); emitErr != nil {
		return emitErr
	}
	return errReported
}

// failSoft emits the same error object as fail but exits zero. Used by
// commands whose callers must always be able to parse stdout without
// guarding the exit code.
func failSoft(cmd *cobra.Command, err error, extra map[string]any) error {
	_ = fail(cmd, err, extra)
	return nil
}

// annotationFailSoft marks the always-exit-zero commands so Execute can
// route their parse failures through failSoft as well.
const annotationFailSoft = "fail-soft"
