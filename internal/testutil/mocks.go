package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/lexweave/gepa/pkg/core"
)

// MockReflectionLM is a testify mock of core.ReflectionLM.
type MockReflectionLM struct {
	mock.Mock
}

func (m *MockReflectionLM) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockAdapter is a testify mock of core.Adapter.
type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) Evaluate(ctx context.Context, candidate *core.Candidate, batch []core.Example, captureTraces bool) (*core.EvalBatch, error) {
	args := m.Called(ctx, candidate, batch, captureTraces)
	if result := args.Get(0); result != nil {
		return result.(*core.EvalBatch), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdapter) MakeReflectiveDataset(ctx context.Context, candidate *core.Candidate, batch []core.Example, eval *core.EvalBatch, components []string) (map[string][]core.ReflectiveExample, error) {
	args := m.Called(ctx, candidate, batch, eval, components)
	if result := args.Get(0); result != nil {
		return result.(map[string][]core.ReflectiveExample), args.Error(1)
	}
	return nil, args.Error(1)
}

// ScriptedAdapter scores candidates with a pure function and counts every
// scoring call, which makes budget assertions exact.
type ScriptedAdapter struct {
	ScoreFn func(candidate *core.Candidate, example core.Example) float64

	mu           sync.Mutex
	ScoringCalls int
}

func (a *ScriptedAdapter) Evaluate(ctx context.Context, candidate *core.Candidate, batch []core.Example, captureTraces bool) (*core.EvalBatch, error) {
	a.mu.Lock()
	a.ScoringCalls += len(batch)
	a.mu.Unlock()

	result := &core.EvalBatch{
		Outputs: make([]map[string]interface{}, len(batch)),
		Scores:  make([]float64, len(batch)),
	}
	if captureTraces {
		result.Trajectories = make([]core.Trace, len(batch))
	}
	for i, example := range batch {
		result.Scores[i] = a.ScoreFn(candidate, example)
		result.Outputs[i] = map[string]interface{}{"answer": "stub"}
		if captureTraces {
			result.Trajectories[i] = core.Trace{"prompt": "stub"}
		}
	}
	return result, nil
}

func (a *ScriptedAdapter) MakeReflectiveDataset(ctx context.Context, candidate *core.Candidate, batch []core.Example, eval *core.EvalBatch, components []string) (map[string][]core.ReflectiveExample, error) {
	dataset := make(map[string][]core.ReflectiveExample, len(components))
	for _, component := range components {
		records := make([]core.ReflectiveExample, len(batch))
		for i := range batch {
			records[i] = core.ReflectiveExample{
				Input:    "input",
				Output:   "output",
				Feedback: "feedback",
			}
		}
		dataset[component] = records
	}
	return dataset, nil
}

// StaticReflector returns a fixed rewrite for every component.
type StaticReflector struct {
	Replacement string
	Err         error
	Calls       int
}

func (r *StaticReflector) Generate(ctx context.Context, prompt string) (string, error) {
	r.Calls++
	if r.Err != nil {
		return "", r.Err
	}
	return r.Replacement, nil
}

// QAExamples builds n question/answer examples for tests.
func QAExamples(n int) []core.Example {
	questions := []struct {
		q string
		a string
	}{
		{"What is the capital of France?", "Paris"},
		{"What is 2 + 2?", "4"},
		{"What color is the sky?", "Blue"},
		{"What is the largest planet?", "Jupiter"},
		{"What is the smallest prime number?", "2"},
		{"What is the chemical symbol for water?", "H2O"},
		{"What year did World War II end?", "1945"},
		{"What is the square root of 16?", "4"},
	}
	examples := make([]core.Example, n)
	for i := range examples {
		qa := questions[i%len(questions)]
		examples[i] = core.Example{
			Inputs:  map[string]interface{}{"question": qa.q},
			Outputs: map[string]interface{}{"answer": qa.a},
		}
	}
	return examples
}
