// Package config loads and validates run configuration from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for an optimization run.
type Config struct {
	// LLM configuration
	LLM LLMConfig `yaml:"llm" validate:"required"`

	// Optimizer configuration
	Optimizer OptimizerConfig `yaml:"optimizer,omitempty" validate:"omitempty"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,omitempty" validate:"omitempty"`

	// History configuration
	History HistoryConfig `yaml:"history,omitempty" validate:"omitempty"`
}

// LLMConfig holds configuration for the task and reflection models.
type LLMConfig struct {
	// Task model executes candidates against data
	Task LLMProviderConfig `yaml:"task" validate:"required"`

	// Reflection model rewrites component text; falls back to the task
	// model when unset
	Reflection LLMProviderConfig `yaml:"reflection,omitempty" validate:"omitempty"`
}

// LLMProviderConfig represents configuration for a specific LLM provider.
type LLMProviderConfig struct {
	// Provider name (currently anthropic)
	Provider string `yaml:"provider" validate:"required,oneof=anthropic"`

	// Model ID (e.g., claude-sonnet-4-5)
	ModelID string `yaml:"model_id" validate:"required"`

	// API key for the provider; falls back to the provider's environment variable
	APIKey string `yaml:"api_key,omitempty"`

	// Generation parameters
	MaxTokens   int     `yaml:"max_tokens,omitempty" validate:"omitempty,min=1"`
	Temperature float64 `yaml:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
}

// OptimizerConfig mirrors the engine's configuration surface.
// SkipPerfectScore and UseMerge default to on, so they are pointers: an
// omitted key takes the default while an explicit false stays false.
type OptimizerConfig struct {
	SelectionStrategy         string  `yaml:"selection_strategy,omitempty" validate:"omitempty,oneof=pareto tournament"`
	ParetoSampling            string  `yaml:"pareto_sampling,omitempty" validate:"omitempty,oneof=weighted argmax"`
	TournamentSize            int     `yaml:"tournament_size,omitempty" validate:"omitempty,min=1"`
	TournamentWithReplacement bool    `yaml:"tournament_with_replacement,omitempty"`
	ReflectionMinibatchSize   int     `yaml:"reflection_minibatch_size,omitempty" validate:"omitempty,min=1"`
	AcceptOnValidation        bool    `yaml:"accept_on_validation,omitempty"`
	PerfectScore              float64 `yaml:"perfect_score,omitempty" validate:"omitempty,gt=0"`
	SkipPerfectScore          *bool   `yaml:"skip_perfect_score,omitempty"`
	UseMerge                  *bool   `yaml:"use_merge,omitempty"`
	MergeProbability          float64 `yaml:"merge_probability,omitempty" validate:"omitempty,min=0,max=1"`
	MaxMetricCalls            int     `yaml:"max_metric_calls,omitempty" validate:"omitempty,min=1"`
	MaxRetriesPerIteration    int     `yaml:"max_retries_per_iteration,omitempty" validate:"omitempty,min=1"`
	ConcurrencyLevel          int     `yaml:"concurrency_level,omitempty" validate:"omitempty,min=1"`
	Seed                      int64   `yaml:"seed,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Severity level: DEBUG, INFO, WARN, ERROR, FATAL
	Severity string `yaml:"severity,omitempty" validate:"omitempty,oneof=DEBUG INFO WARN ERROR FATAL"`

	// Optional log file; console output is always on
	FilePath string `yaml:"file_path,omitempty"`
}

// HistoryConfig controls run persistence.
type HistoryConfig struct {
	// SQLite database path; empty disables persistence
	Path string `yaml:"path,omitempty"`
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
