package core

import (
	"context"
)

// Example represents a single training/evaluation instance.
type Example struct {
	Inputs  map[string]interface{}
	Outputs map[string]interface{}
}

// Trace is an opaque per-item trajectory captured during evaluation. The
// engine never inspects it; it is handed back to the adapter when building
// the reflective dataset.
type Trace map[string]interface{}

// EvalBatch is the result of evaluating one candidate against one data batch.
// Scores holds one value per batch item in [0, PerfectScore]. Trajectories is
// nil unless trace capture was requested.
type EvalBatch struct {
	Outputs      []map[string]interface{}
	Scores       []float64
	Trajectories []Trace
}

// ReflectiveExample is one record of the reflective dataset: what the
// candidate saw, what it produced, and task-specific feedback on it.
type ReflectiveExample struct {
	Input    string `json:"input"`
	Output   string `json:"output"`
	Feedback string `json:"feedback"`
}

// Adapter executes candidates against concrete task data. It is the only
// consumer of the task LM; the engine sees scores and opaque traces. A
// per-item failure inside the adapter is reported as the minimum score for
// that item rather than an error, so one bad item cannot invalidate a batch.
type Adapter interface {
	// Evaluate runs the candidate over the batch and scores each item.
	Evaluate(ctx context.Context, candidate *Candidate, batch []Example, captureTraces bool) (*EvalBatch, error)

	// MakeReflectiveDataset distills the evaluation into per-component
	// input/output/feedback records, restricted to the named components.
	MakeReflectiveDataset(ctx context.Context, candidate *Candidate, batch []Example, eval *EvalBatch, components []string) (map[string][]ReflectiveExample, error)
}

// ReflectionLM is the opaque text-to-text capability used to rewrite
// component text. Calls are synchronous from the engine's point of view and
// do not count against the task-evaluation budget.
type ReflectionLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HistorySink observes every accepted store insertion. Implementations must
// tolerate being called once per insert in acceptance order.
type HistorySink interface {
	RecordCandidate(ctx context.Context, runID string, candidate *Candidate) error
	Close() error
}

// Metric evaluates a single predicted output against the expected one,
// returning a score in [0, 1] unless the task configures a different ceiling.
type Metric func(expected, actual map[string]interface{}) float64
