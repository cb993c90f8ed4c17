// Package adapters provides task adapters that execute prompt candidates
// against concrete data. The optimization engine only ever sees the Adapter
// contract; everything task-specific lives here.
package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/lexweave/gepa/pkg/core"
	"github.com/lexweave/gepa/pkg/logging"
	"github.com/lexweave/gepa/pkg/utils"
)

// TaskLM is the model the adapter drives to execute candidates. It is
// deliberately the same shape as the engine's reflection contract so one
// client can serve both roles.
type TaskLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProgramAdapter executes a single-turn prompt program: the candidate's
// components are concatenated into one prompt ahead of the rendered example
// inputs, the task LM answers, and a metric scores the answer against the
// expected outputs.
type ProgramAdapter struct {
	LM         TaskLM
	Metric     core.Metric
	MaxWorkers int // Concurrent items per batch, default 1
}

// NewProgramAdapter creates an adapter around a task LM and a metric.
func NewProgramAdapter(lm TaskLM, metric core.Metric, maxWorkers int) *ProgramAdapter {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &ProgramAdapter{
		LM:         lm,
		Metric:     metric,
		MaxWorkers: maxWorkers,
	}
}

// Evaluate runs the candidate over the batch, one LM call per item, bounded
// by MaxWorkers. A failed item scores the minimum value instead of failing
// the batch; the failure is preserved in the item's trace.
func (a *ProgramAdapter) Evaluate(ctx context.Context, candidate *core.Candidate, batch []core.Example, captureTraces bool) (*core.EvalBatch, error) {
	logger := logging.GetLogger()

	result := &core.EvalBatch{
		Outputs: make([]map[string]interface{}, len(batch)),
		Scores:  make([]float64, len(batch)),
	}
	if captureTraces {
		result.Trajectories = make([]core.Trace, len(batch))
	}

	p := pool.New().WithMaxGoroutines(a.MaxWorkers)
	for i := range batch {
		p.Go(func() {
			example := batch[i]
			prompt := a.buildPrompt(candidate, example)
			response, err := a.LM.Generate(ctx, prompt)

			var output map[string]interface{}
			score := 0.0
			if err != nil {
				logger.Warn(ctx, "task LM failed on batch item %d: %v", i, err)
			} else {
				output = map[string]interface{}{"answer": strings.TrimSpace(response)}
				score = a.Metric(example.Outputs, output)
			}

			result.Outputs[i] = output
			result.Scores[i] = score
			if captureTraces {
				trace := core.Trace{
					"prompt":   prompt,
					"response": response,
				}
				if err != nil {
					trace["error"] = err.Error()
				}
				result.Trajectories[i] = trace
			}
		})
	}
	p.Wait()

	return result, nil
}

// MakeReflectiveDataset distills one evaluation into per-component
// input/output/feedback records for the reflection prompt.
func (a *ProgramAdapter) MakeReflectiveDataset(ctx context.Context, candidate *core.Candidate, batch []core.Example, eval *core.EvalBatch, components []string) (map[string][]core.ReflectiveExample, error) {
	dataset := make(map[string][]core.ReflectiveExample, len(components))

	for _, component := range components {
		if _, ok := candidate.Components[component]; !ok {
			continue
		}
		records := make([]core.ReflectiveExample, 0, len(batch))
		for i, example := range batch {
			output := "(no output)"
			if i < len(eval.Outputs) && eval.Outputs[i] != nil {
				output = utils.RenderMap(eval.Outputs[i])
			}
			records = append(records, core.ReflectiveExample{
				Input:    utils.RenderMap(example.Inputs),
				Output:   output,
				Feedback: a.feedbackFor(example, eval, i),
			})
		}
		dataset[component] = records
	}

	return dataset, nil
}

func (a *ProgramAdapter) buildPrompt(candidate *core.Candidate, example core.Example) string {
	var b strings.Builder
	for _, name := range candidate.ComponentNames() {
		b.WriteString(candidate.Components[name])
		b.WriteString("\n\n")
	}
	b.WriteString(utils.RenderMap(example.Inputs))
	return b.String()
}

func (a *ProgramAdapter) feedbackFor(example core.Example, eval *core.EvalBatch, i int) string {
	if i >= len(eval.Scores) {
		return "This item was not scored."
	}
	score := eval.Scores[i]
	if i < len(eval.Trajectories) && eval.Trajectories[i] != nil {
		if errMsg, ok := eval.Trajectories[i]["error"].(string); ok {
			return fmt.Sprintf("The model call failed: %s. Score: %.2f.", errMsg, score)
		}
	}
	if score >= 1.0 {
		return fmt.Sprintf("Correct. Score: %.2f.", score)
	}
	return fmt.Sprintf("Score: %.2f. The expected output was:\n%s", score, utils.RenderMap(example.Outputs))
}
