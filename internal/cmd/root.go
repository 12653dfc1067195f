// Package cmd implements the designctl command surface. Every command
// writes exactly one JSON object with a top-level "ok" boolean to stdout
// and nothing else; callers branch on the JSON, not on parsing text.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/designctl/internal/config"
	"github.com/Iron-Ham/designctl/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "designctl",
	Short: "Deterministic plan and state management for design cycles",
	Long: `Designctl manages the on-disk state of a planning/execution cycle:
a plan document with a dependency graph of work nodes, append-only trace
and reflection logs, and a scored cross-cycle memory store.

Every command emits a single JSON object with a top-level "ok" field to
standard output. Errors are reported inside that object with a stable
error code, never as loose text.`,
	// RunE errors have already been emitted as JSON by the time cobra
	// sees them; printing them again would break the one-object
	// contract. Parse failures are emitted by Execute instead.
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command. Cobra rejects unknown flags, missing
// required flags and bad argument counts before any RunE runs, so those
// failures get their JSON error object written here.
func Execute() error {
	cmd, err := rootCmd.ExecuteC()
	if err == nil || errors.Is(err, errReported) {
		return err
	}
	if cmd == nil {
		cmd = rootCmd
	}
	parseErr := errors.NewCommand(errors.CodeInvalidInput, err.Error())
	if cmd.Annotations[annotationFailSoft] == "true" {
		return failSoft(cmd, parseErr, nil)
	}
	return fail(cmd, parseErr, nil)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/designctl/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("$HOME/.config/designctl")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("DESIGNCTL")
	// Replace dots with underscores for nested keys in env vars
	// e.g., DESIGNCTL_PLAN_RETRY_BUDGET for plan.retry_budget
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
