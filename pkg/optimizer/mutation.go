package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lexweave/gepa/pkg/core"
	"github.com/lexweave/gepa/pkg/errors"
	"github.com/lexweave/gepa/pkg/logging"
)

// evalFunc scores a candidate against a batch. The engine supplies it so
// budget accounting stays in one place.
type evalFunc func(ctx context.Context, candidate *core.Candidate, batch []core.Example, captureTraces bool) (*core.EvalBatch, error)

// MutationProposer produces one child candidate by rewriting target
// components using reflection-model feedback on a training minibatch.
type MutationProposer struct {
	Adapter            core.Adapter
	Reflector          core.ReflectionLM
	PerfectScore       float64
	SkipPerfectScore   bool
	AcceptOnValidation bool

	// minibatch scores observed per candidate id per training-example index;
	// consulted by the skip-perfect-score short circuit.
	scoreCache map[int]map[int]float64
}

// NewMutationProposer creates a proposer with an empty score cache.
func NewMutationProposer(adapter core.Adapter, reflector core.ReflectionLM) *MutationProposer {
	return &MutationProposer{
		Adapter:      adapter,
		Reflector:    reflector,
		PerfectScore: 1.0,
		scoreCache:   make(map[int]map[int]float64),
	}
}

// RecordScores remembers minibatch scores for a candidate already inserted
// into the store.
func (p *MutationProposer) RecordScores(candidateID int, indices []int, scores []float64) {
	if p.scoreCache[candidateID] == nil {
		p.scoreCache[candidateID] = make(map[int]float64)
	}
	for i, index := range indices {
		if i < len(scores) {
			p.scoreCache[candidateID][index] = scores[i]
		}
	}
}

// atPerfectScore reports whether every minibatch instance has a cached
// perfect score for the candidate. Unknown instances count as imperfect.
func (p *MutationProposer) atPerfectScore(candidateID int, indices []int) bool {
	cached := p.scoreCache[candidateID]
	if cached == nil {
		return false
	}
	for _, index := range indices {
		score, ok := cached[index]
		if !ok || score < p.PerfectScore {
			return false
		}
	}
	return true
}

// Propose builds a mutation child of parent, or returns nil when the
// proposal is skipped or discarded. The returned scores are the child's
// per-item minibatch scores (nil when acceptance is deferred to validation).
//
// The skip-perfect-score path consumes no budget. A discarded proposal has
// already consumed its minibatch evaluations; the caller's budget reflects
// that.
func (p *MutationProposer) Propose(ctx context.Context, parent *core.Candidate, batch []core.Example, indices []int, components []string, eval evalFunc) (*core.Candidate, []float64, error) {
	logger := logging.GetLogger()

	if len(components) == 0 {
		return nil, nil, errors.New(errors.NoTargetComponents, "no components to update")
	}

	if p.SkipPerfectScore && p.atPerfectScore(parent.ID, indices) {
		logger.Debug(ctx, "candidate %d already perfect on minibatch, skipping mutation", parent.ID)
		return nil, nil, nil
	}

	parentEval, err := eval(ctx, parent, batch, true)
	if err != nil {
		return nil, nil, err
	}
	p.RecordScores(parent.ID, indices, parentEval.Scores)
	parentMean := mean(parentEval.Scores)

	reflective, err := p.Adapter.MakeReflectiveDataset(ctx, parent, batch, parentEval, components)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.AdapterEvaluationFailed, "failed to build reflective dataset")
	}

	sorted := make([]string, len(components))
	copy(sorted, components)
	sort.Strings(sorted)

	updated := make(map[string]string, len(parent.Components))
	for name, text := range parent.Components {
		updated[name] = text
	}

	changed := false
	for _, name := range sorted {
		current, ok := parent.Components[name]
		if !ok {
			continue
		}
		prompt := buildReflectionPrompt(name, current, reflective[name])
		response, err := p.Reflector.Generate(ctx, prompt)
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ReflectionGenerationFailed, "reflection model call failed")
		}
		replacement := parseReplacement(response)
		if replacement != "" && replacement != current {
			updated[name] = replacement
			changed = true
		}
	}

	if !changed {
		logger.Debug(ctx, "reflection returned unchanged text for candidate %d, discarding proposal", parent.ID)
		return nil, nil, nil
	}

	child := core.NewCandidate(updated, []int{parent.ID}, core.MethodMutate)

	if p.AcceptOnValidation {
		// Acceptance is decided by the engine against the validation set.
		return child, nil, nil
	}

	childEval, err := eval(ctx, child, batch, false)
	if err != nil {
		return nil, nil, err
	}
	childMean := mean(childEval.Scores)
	if childMean <= parentMean {
		logger.Debug(ctx, "mutation child of %d scored %.4f vs parent %.4f, discarding",
			parent.ID, childMean, parentMean)
		return nil, nil, nil
	}

	child.TrainScore = childMean
	return child, childEval.Scores, nil
}

// buildReflectionPrompt renders the current component text and its
// reflective dataset entries into a single rewrite request.
func buildReflectionPrompt(name, current string, examples []core.ReflectiveExample) string {
	title := cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))

	var b strings.Builder
	fmt.Fprintf(&b, "I provided an assistant with the following %s text to perform a task:\n\n", title)
	fmt.Fprintf(&b, "```\n%s\n```\n\n", current)
	b.WriteString("Below are examples of inputs the assistant received, the outputs it produced, and feedback on those outputs:\n\n")

	for i, example := range examples {
		fmt.Fprintf(&b, "### Example %d\nInput: %s\nOutput: %s\nFeedback: %s\n\n",
			i+1, example.Input, example.Output, example.Feedback)
	}

	fmt.Fprintf(&b, "Write an improved %s that addresses the feedback while preserving what already works. "+
		"Include any domain-specific details from the feedback that future inputs will need. "+
		"Respond with the new text only, inside a fenced code block.", title)
	return b.String()
}

// parseReplacement extracts the rewritten component text from a reflection
// response, stripping a fenced code block when present.
func parseReplacement(response string) string {
	trimmed := strings.TrimSpace(response)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}
	rest := trimmed[start+3:]
	// Drop an optional language tag on the fence line.
	if newline := strings.Index(rest, "\n"); newline >= 0 {
		rest = rest[newline+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
