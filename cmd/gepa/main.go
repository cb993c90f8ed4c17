// Command gepa runs a reflective evolutionary prompt optimization over the
// GSM8K benchmark using a YAML run configuration.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/lexweave/gepa/pkg/adapters"
	"github.com/lexweave/gepa/pkg/config"
	"github.com/lexweave/gepa/pkg/datasets"
	"github.com/lexweave/gepa/pkg/history"
	"github.com/lexweave/gepa/pkg/llms"
	"github.com/lexweave/gepa/pkg/logging"
	"github.com/lexweave/gepa/pkg/optimizer"
)

func main() {
	configPath := flag.String("config", "gepa.yaml", "path to run configuration")
	seedPath := flag.String("seed", "", "path to YAML mapping of component name to text")
	sampleSize := flag.Int("samples", 100, "number of GSM8K examples to use")
	flag.Parse()

	if err := run(*configPath, *seedPath, *sampleSize); err != nil {
		fmt.Fprintf(os.Stderr, "gepa: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, seedPath string, sampleSize int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	outputs := []logging.Output{logging.NewConsoleOutput(true)}
	if cfg.Logging.FilePath != "" {
		fileOutput, err := logging.NewFileOutput(cfg.Logging.FilePath)
		if err != nil {
			return err
		}
		outputs = append(outputs, fileOutput)
	}
	logging.SetLogger(logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Logging.Severity),
		Outputs:  outputs,
	}))

	taskLM, err := buildLM(cfg.LLM.Task)
	if err != nil {
		return err
	}
	reflectionLM, err := buildLM(cfg.LLM.Reflection)
	if err != nil {
		return err
	}

	seed, err := loadSeed(seedPath)
	if err != nil {
		return err
	}

	examples, err := datasets.LoadGSM8K()
	if err != nil {
		return err
	}
	if sampleSize > 0 && sampleSize < len(examples) {
		examples = examples[:sampleSize]
	}
	trainExamples, valExamples := datasets.Split(examples, 0.7, cfg.Optimizer.Seed)

	adapter := adapters.NewProgramAdapter(taskLM, answerMatch, cfg.Optimizer.ConcurrencyLevel)

	engineOpts := []optimizer.Option{}
	if cfg.History.Path != "" {
		sink, err := history.NewSQLiteSink(cfg.History.Path)
		if err != nil {
			return err
		}
		defer sink.Close()
		engineOpts = append(engineOpts, optimizer.WithHistorySink(sink))
	}

	engine, err := optimizer.New(cfg.EngineConfig(), adapter, reflectionLM, engineOpts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := engine.Run(ctx,
		seed,
		datasets.NewInMemoryDataset(trainExamples),
		datasets.NewInMemoryDataset(valExamples))
	if err != nil {
		return err
	}

	summary := map[string]interface{}{
		"run_id":            result.RunID,
		"best_candidate":    result.BestCandidate.Components,
		"best_score":        result.BestScore,
		"candidates":        len(result.AllCandidates),
		"total_evaluations": result.TotalEvaluations,
		"iterations":        result.Iterations,
	}
	encoded, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func buildLM(cfg config.LLMProviderConfig) (llms.LM, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	opts := []llms.AnthropicOption{}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(cfg.MaxTokens))
	}
	if cfg.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(cfg.Temperature))
	}
	return llms.NewLM(cfg.Provider, apiKey, cfg.ModelID, opts...)
}

func loadSeed(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{
			"system_prompt": "You are a careful math tutor. Solve the problem step by step, then state the final numeric answer on its own line.",
		}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	seed := make(map[string]string)
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return seed, nil
}

// answerMatch scores 1.0 when the predicted answer contains the expected
// final answer token, 0.0 otherwise.
func answerMatch(expected, actual map[string]interface{}) float64 {
	want, _ := expected["answer"].(string)
	got, _ := actual["answer"].(string)
	if want == "" || got == "" {
		return 0.0
	}
	// GSM8K answers end with "#### <number>".
	if idx := strings.LastIndex(want, "####"); idx >= 0 {
		want = strings.TrimSpace(want[idx+4:])
	}
	if strings.Contains(got, want) {
		return 1.0
	}
	return 0.0
}
