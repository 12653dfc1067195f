package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the complete designctl configuration.
type Config struct {
	Plan       PlanConfig       `mapstructure:"plan"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	Reflection ReflectionConfig `mapstructure:"reflection"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// PlanConfig controls plan validation and execution-state thresholds.
type PlanConfig struct {
	// SchemaVersion is the plan schema version the tooling expects.
	// A plan with any other version is rejected with bad_schema.
	SchemaVersion int `mapstructure:"schema_version"`
	// MaxNodes is the soft ceiling on plan size. Exceeding it is reported
	// as a validation issue but does not block finalize.
	MaxNodes int `mapstructure:"max_nodes"`
	// MaxWaveDepth is the soft ceiling on critical path depth.
	MaxWaveDepth int `mapstructure:"max_wave_depth"`
	// RetryBudget is the number of attempts before a failed node stops
	// being retry-eligible.
	RetryBudget int `mapstructure:"retry_budget"`
	// RepairPasses bounds how many times finalize will recompute waves
	// before giving up and reporting the remaining mismatches.
	RepairPasses int `mapstructure:"repair_passes"`
	// BreakerThreshold is the failed-fraction above which the circuit
	// breaker signals abort.
	BreakerThreshold float64 `mapstructure:"breaker_threshold"`
	// BreakerMinNodes exempts small plans from the circuit breaker:
	// plans with this many nodes or fewer never abort.
	BreakerMinNodes int `mapstructure:"breaker_min_nodes"`
}

// MemoryConfig controls memory retrieval behavior.
type MemoryConfig struct {
	// SearchLimit is the default number of entries memory-search returns.
	SearchLimit int `mapstructure:"search_limit"`
	// DefaultImportance is assigned to new entries that don't specify one.
	DefaultImportance int `mapstructure:"default_importance"`
}

// ReflectionConfig controls reflection analytics.
type ReflectionConfig struct {
	// HealthWindow is how many recent reflections plan-health-summary reads.
	HealthWindow int `mapstructure:"health_window"`
}

// LoggingConfig controls the debug logger.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
}

// SetDefaults registers default values for all configuration keys.
// Called before reading any config file so defaults apply even without one.
func SetDefaults() {
	viper.SetDefault("plan.schema_version", 3)
	viper.SetDefault("plan.max_nodes", 12)
	viper.SetDefault("plan.max_wave_depth", 8)
	viper.SetDefault("plan.retry_budget", 3)
	viper.SetDefault("plan.repair_passes", 2)
	viper.SetDefault("plan.breaker_threshold", 0.5)
	viper.SetDefault("plan.breaker_min_nodes", 3)
	viper.SetDefault("memory.search_limit", 5)
	viper.SetDefault("memory.default_importance", 5)
	viper.SetDefault("reflection.health_window", 5)
	viper.SetDefault("logging.level", "INFO")
}

// Load unmarshals the current viper state into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
