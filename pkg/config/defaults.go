package config

import (
	"github.com/lexweave/gepa/pkg/optimizer"
)

// applyDefaults fills unset fields with sensible defaults.
func (c *Config) applyDefaults() {
	defaults := optimizer.DefaultConfig()

	if c.Optimizer.SelectionStrategy == "" {
		c.Optimizer.SelectionStrategy = defaults.SelectionStrategy
	}
	if c.Optimizer.ParetoSampling == "" {
		c.Optimizer.ParetoSampling = defaults.ParetoSampling
	}
	if c.Optimizer.TournamentSize == 0 {
		c.Optimizer.TournamentSize = defaults.TournamentSize
	}
	if c.Optimizer.ReflectionMinibatchSize == 0 {
		c.Optimizer.ReflectionMinibatchSize = defaults.ReflectionMinibatchSize
	}
	if c.Optimizer.PerfectScore == 0 {
		c.Optimizer.PerfectScore = defaults.PerfectScore
	}
	if c.Optimizer.SkipPerfectScore == nil {
		v := defaults.SkipPerfectScore
		c.Optimizer.SkipPerfectScore = &v
	}
	if c.Optimizer.UseMerge == nil {
		v := defaults.UseMerge
		c.Optimizer.UseMerge = &v
	}
	if c.Optimizer.MergeProbability == 0 {
		c.Optimizer.MergeProbability = defaults.MergeProbability
	}
	if c.Optimizer.MaxMetricCalls == 0 {
		c.Optimizer.MaxMetricCalls = defaults.MaxMetricCalls
	}
	if c.Optimizer.MaxRetriesPerIteration == 0 {
		c.Optimizer.MaxRetriesPerIteration = defaults.MaxRetriesPerIteration
	}
	if c.Optimizer.ConcurrencyLevel == 0 {
		c.Optimizer.ConcurrencyLevel = defaults.ConcurrencyLevel
	}

	if c.LLM.Reflection.Provider == "" {
		c.LLM.Reflection = c.LLM.Task
	}
	if c.LLM.Task.MaxTokens == 0 {
		c.LLM.Task.MaxTokens = 1024
	}
	if c.LLM.Reflection.MaxTokens == 0 {
		c.LLM.Reflection.MaxTokens = 1024
	}

	if c.Logging.Severity == "" {
		c.Logging.Severity = "INFO"
	}
}

// EngineConfig converts the file representation into the engine's Config.
func (c *Config) EngineConfig() *optimizer.Config {
	return &optimizer.Config{
		SelectionStrategy:         c.Optimizer.SelectionStrategy,
		ParetoSampling:            c.Optimizer.ParetoSampling,
		TournamentSize:            c.Optimizer.TournamentSize,
		TournamentWithReplacement: c.Optimizer.TournamentWithReplacement,
		ReflectionMinibatchSize:   c.Optimizer.ReflectionMinibatchSize,
		AcceptOnValidation:        c.Optimizer.AcceptOnValidation,
		PerfectScore:              c.Optimizer.PerfectScore,
		SkipPerfectScore:          c.Optimizer.SkipPerfectScore != nil && *c.Optimizer.SkipPerfectScore,
		UseMerge:                  c.Optimizer.UseMerge != nil && *c.Optimizer.UseMerge,
		MergeProbability:          c.Optimizer.MergeProbability,
		MaxMetricCalls:            c.Optimizer.MaxMetricCalls,
		MaxRetriesPerIteration:    c.Optimizer.MaxRetriesPerIteration,
		ConcurrencyLevel:          c.Optimizer.ConcurrencyLevel,
		Seed:                      c.Optimizer.Seed,
	}
}
