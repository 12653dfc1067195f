package cmd

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/config"
	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/plan"
)

func planLimits(cfg *config.Config) plan.Limits {
	return plan.Limits{
		SchemaVersion: cfg.Plan.SchemaVersion,
		MaxNodes:      cfg.Plan.MaxNodes,
		MaxWaveDepth:  cfg.Plan.MaxWaveDepth,
	}
}

// loadPlan loads config and the plan document in one step, since nearly
// every plan command needs both.
func loadPlan(path string) (*plan.Document, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeInternal, "failed to load config", err)
	}
	doc, err := plan.Load(path, cfg.Plan.SchemaVersion)
	if err != nil {
		return nil, cfg, err
	}
	return doc, cfg, nil
}

// decodeStdin reads one JSON value from the command's stdin.
func decodeStdin(cmd *cobra.Command, v any) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return errors.Wrap(errors.CodeInvalidInput, "failed to read stdin", err)
	}
	if len(data) == 0 {
		return errors.NewCommand(errors.CodeInvalidInput, "expected a JSON body on stdin")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.CodeInvalidJSON, "invalid JSON on stdin", err)
	}
	return nil
}
