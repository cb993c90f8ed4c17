// Package optimizer implements a reflective evolutionary search over prompt
// candidates. A candidate is a mapping of component name to component text;
// the engine evolves candidates through reflection-driven mutation and
// lineage-aware merge, tracks a per-instance Pareto archive over the
// validation set, and stops when a hard budget of scoring calls runs out.
package optimizer

import (
	"github.com/lexweave/gepa/pkg/errors"
)

// Selection strategy names accepted by Config.SelectionStrategy.
const (
	StrategyPareto     = "pareto"
	StrategyTournament = "tournament"
)

// Pareto sampling policies accepted by Config.ParetoSampling.
const (
	SamplingWeighted = "weighted"
	SamplingArgmax   = "argmax"
)

// Config contains configuration options for the optimization engine.
type Config struct {
	// Selection parameters
	SelectionStrategy         string `json:"selection_strategy"`          // "pareto" | "tournament", default: "pareto"
	ParetoSampling            string `json:"pareto_sampling"`             // "weighted" | "argmax", default: "weighted"
	TournamentSize            int    `json:"tournament_size"`             // Default: 3
	TournamentWithReplacement bool   `json:"tournament_with_replacement"` // Default: false

	// Mutation parameters
	ReflectionMinibatchSize int     `json:"reflection_minibatch_size"` // Default: 3
	AcceptOnValidation      bool    `json:"accept_on_validation"`      // Accept children on validation instead of the minibatch
	PerfectScore            float64 `json:"perfect_score"`             // Default: 1.0
	SkipPerfectScore        bool    `json:"skip_perfect_score"`        // On in DefaultConfig; off in a zero-valued Config

	// Merge parameters
	UseMerge         bool    `json:"use_merge"`         // On in DefaultConfig; off in a zero-valued Config
	MergeProbability float64 `json:"merge_probability"` // Default: 0.25

	// Budget parameters
	MaxMetricCalls         int `json:"max_metric_calls"`          // Default: 200
	MaxRetriesPerIteration int `json:"max_retries_per_iteration"` // Default: 3

	// Performance parameters
	ConcurrencyLevel int `json:"concurrency_level"` // Hint for adapters, default: 3

	// Determinism
	Seed int64 `json:"seed"` // Default: 0
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		SelectionStrategy:       StrategyPareto,
		ParetoSampling:          SamplingWeighted,
		TournamentSize:          3,
		ReflectionMinibatchSize: 3,
		PerfectScore:            1.0,
		SkipPerfectScore:        true,
		UseMerge:                true,
		MergeProbability:        0.25,
		MaxMetricCalls:          200,
		MaxRetriesPerIteration:  3,
		ConcurrencyLevel:        3,
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.SelectionStrategy != StrategyPareto && c.SelectionStrategy != StrategyTournament {
		return errors.WithFields(
			errors.New(errors.InvalidInput, "unknown selection strategy"),
			errors.Fields{"strategy": c.SelectionStrategy})
	}
	if c.ParetoSampling != SamplingWeighted && c.ParetoSampling != SamplingArgmax {
		return errors.WithFields(
			errors.New(errors.InvalidInput, "unknown pareto sampling policy"),
			errors.Fields{"sampling": c.ParetoSampling})
	}
	if c.ReflectionMinibatchSize <= 0 {
		return errors.New(errors.InvalidInput, "reflection minibatch size must be positive")
	}
	if c.MaxMetricCalls <= 0 {
		return errors.New(errors.InvalidInput, "max metric calls must be positive")
	}
	if c.MergeProbability < 0 || c.MergeProbability > 1 {
		return errors.New(errors.InvalidInput, "merge probability must be in [0, 1]")
	}
	return nil
}

// withDefaults returns a copy of c with any zero-valued fields filled from
// DefaultConfig. The caller's struct is left untouched.
func withDefaults(c *Config) *Config {
	if c == nil {
		return DefaultConfig()
	}
	copied := *c
	c = &copied
	defaults := DefaultConfig()
	if c.SelectionStrategy == "" {
		c.SelectionStrategy = defaults.SelectionStrategy
	}
	if c.ParetoSampling == "" {
		c.ParetoSampling = defaults.ParetoSampling
	}
	if c.TournamentSize <= 0 {
		c.TournamentSize = defaults.TournamentSize
	}
	if c.ReflectionMinibatchSize <= 0 {
		c.ReflectionMinibatchSize = defaults.ReflectionMinibatchSize
	}
	if c.PerfectScore <= 0 {
		c.PerfectScore = defaults.PerfectScore
	}
	if c.MaxMetricCalls <= 0 {
		c.MaxMetricCalls = defaults.MaxMetricCalls
	}
	if c.MaxRetriesPerIteration <= 0 {
		c.MaxRetriesPerIteration = defaults.MaxRetriesPerIteration
	}
	if c.ConcurrencyLevel <= 0 {
		c.ConcurrencyLevel = defaults.ConcurrencyLevel
	}
	return c
}
