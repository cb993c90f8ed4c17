package optimizer

import (
	"context"
	"math/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/lexweave/gepa/pkg/core"
	"github.com/lexweave/gepa/pkg/errors"
	"github.com/lexweave/gepa/pkg/logging"
)

// State identifies where the engine loop currently is. Exposed for
// observability; transitions happen only on the loop goroutine.
type State int

const (
	StateInit State = iota
	StateSelecting
	StateProposing
	StateEvaluating
	StateAccepting
	StateExhausted
	StateDone
)

func (s State) String() string {
	return [...]string{"Init", "Selecting", "Proposing", "Evaluating", "Accepting", "Exhausted", "Done"}[s]
}

// GEPA is the optimization engine: it owns the candidate store, the Pareto
// archive, and the budget, and drives selection, proposal, evaluation, and
// acceptance until the budget runs out. The store and budget are mutated
// only from the loop; selectors and proposers only read.
type GEPA struct {
	config    *Config
	adapter   core.Adapter
	reflector core.ReflectionLM
	sink      core.HistorySink
	runID     string
	rng       *rand.Rand

	store    *core.Store
	archive  *ParetoArchive
	budget   *Budget
	selector Selector
	mutation *MutationProposer
	merge    *MergeProposer
	state    State

	// Round-robin cursor over component names for mutation targets.
	componentCursor int
}

// Option customizes engine construction.
type Option func(*GEPA)

// WithHistorySink attaches a sink observing every accepted insertion.
func WithHistorySink(sink core.HistorySink) Option {
	return func(g *GEPA) {
		g.sink = sink
	}
}

// New creates an optimization engine. The adapter executes candidates
// against task data; the reflector is the text-to-text model used for
// component rewriting.
func New(config *Config, adapter core.Adapter, reflector core.ReflectionLM, opts ...Option) (*GEPA, error) {
	config = withDefaults(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if adapter == nil {
		return nil, errors.New(errors.InvalidInput, "adapter is required")
	}
	if reflector == nil {
		return nil, errors.New(errors.InvalidInput, "reflection model is required")
	}

	g := &GEPA{
		config:    config,
		adapter:   adapter,
		reflector: reflector,
		runID:     uuid.NewString(),
		rng:       rand.New(rand.NewSource(config.Seed)),
		state:     StateInit,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// RunID returns the unique identifier of this run.
func (g *GEPA) RunID() string {
	return g.runID
}

// State returns the engine's current loop state.
func (g *GEPA) State() State {
	return g.state
}

// Run optimizes the seed candidate against the training and validation sets
// and returns the best candidate found. Cancellation between state
// transitions returns the best candidate so far rather than an error.
func (g *GEPA) Run(ctx context.Context, seed map[string]string, trainset, valset core.Dataset) (*Result, error) {
	logger := logging.GetLogger()

	if len(seed) == 0 {
		return nil, errors.New(errors.InvalidInput, "seed candidate has no components")
	}
	trainExamples := core.CollectExamples(trainset)
	valExamples := core.CollectExamples(valset)
	if len(valExamples) == 0 {
		return nil, errors.New(errors.InvalidInput, "validation set is empty")
	}

	g.budget = NewBudget(g.config.MaxMetricCalls)
	g.store = core.NewStore(g.runID, g.sink)
	g.archive = NewParetoArchive(len(valExamples))
	g.mutation = NewMutationProposer(g.adapter, g.reflector)
	g.mutation.PerfectScore = g.config.PerfectScore
	g.mutation.SkipPerfectScore = g.config.SkipPerfectScore
	g.mutation.AcceptOnValidation = g.config.AcceptOnValidation
	g.merge = &MergeProposer{Store: g.store}
	g.selector = g.buildSelector()

	logger.Info(ctx, "starting run %s: strategy=%s budget=%d valset=%d trainset=%d",
		g.runID, g.config.SelectionStrategy, g.config.MaxMetricCalls, len(valExamples), len(trainExamples))

	// The seed is evaluated against the full validation set unconditionally.
	if !g.budget.CanAfford(len(valExamples)) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "budget cannot cover the seed evaluation"),
			errors.Fields{"budget": g.config.MaxMetricCalls, "valset": len(valExamples)})
	}
	seedCandidate := core.NewCandidate(seed, nil, core.MethodSeed)
	seedEval, err := g.evaluate(ctx, seedCandidate, valExamples, false)
	if err != nil {
		return nil, err
	}
	seedCandidate.ValScores = seedEval.Scores
	if _, err := g.store.Insert(ctx, seedCandidate); err != nil {
		return nil, err
	}
	g.archive.Update(seedCandidate)
	logger.Info(ctx, "seed candidate evaluated: aggregate=%.4f budget_used=%d",
		seedCandidate.AggregateScore(), g.budget.Used())

	iterations := 0
	stalled := 0
	for {
		if ctx.Err() != nil {
			logger.Warn(ctx, "run %s canceled after %d iterations, returning best so far", g.runID, iterations)
			break
		}

		doMerge := g.config.UseMerge && g.store.Len() >= 2 && g.rng.Float64() < g.config.MergeProbability
		if len(trainExamples) == 0 && !doMerge {
			// Mutation needs training data; without it only merges can run.
			if !g.config.UseMerge || g.store.Len() < 2 {
				break
			}
			doMerge = true
		}

		if !g.budget.CanAfford(g.minIterationCost(doMerge, trainExamples, valExamples)) {
			g.state = StateExhausted
			break
		}

		usedBefore := g.budget.Used()
		inserted, err := g.runIteration(ctx, doMerge, trainExamples, valExamples)
		if err != nil {
			return nil, err
		}
		iterations++

		if !inserted && g.budget.Used() == usedBefore {
			// No acceptance and no spend: the population cannot currently
			// support the configured strategy. Give up after bounded stalls
			// instead of spinning.
			stalled++
			if stalled >= g.config.MaxRetriesPerIteration {
				logger.Warn(ctx, "run %s stalled for %d iterations, stopping", g.runID, stalled)
				break
			}
		} else {
			stalled = 0
		}
	}

	g.state = StateDone
	return g.buildResult(ctx, iterations)
}

// runIteration performs one Selecting -> Proposing -> Evaluating ->
// Accepting pass. Recoverable failures are retried up to the configured
// bound; the iteration then ends without insertion.
func (g *GEPA) runIteration(ctx context.Context, doMerge bool, trainExamples, valExamples []core.Example) (bool, error) {
	logger := logging.GetLogger()

	for attempt := 0; attempt < g.config.MaxRetriesPerIteration; attempt++ {
		if err := errors.CheckContext(ctx, "optimization iteration"); err != nil {
			return false, nil
		}

		usedBefore := g.budget.Used()
		var inserted bool
		var err error
		if doMerge {
			inserted, err = g.mergeStep(ctx, valExamples)
		} else {
			inserted, err = g.mutationStep(ctx, trainExamples, valExamples)
		}
		if err != nil {
			if errors.IsRecoverable(err) {
				logger.Debug(ctx, "recoverable failure (attempt %d): %v", attempt+1, err)
				continue
			}
			return false, err
		}
		if !inserted && g.budget.Used() == usedBefore {
			// Skip-perfect-score and no-op proposals consume nothing; retry
			// selection with a different parent.
			continue
		}
		return inserted, nil
	}
	return false, nil
}

// mutationStep runs one reflective mutation proposal end to end.
func (g *GEPA) mutationStep(ctx context.Context, trainExamples, valExamples []core.Example) (bool, error) {
	logger := logging.GetLogger()

	g.state = StateSelecting
	parentID, err := g.selector.Select(g.rng)
	if err != nil {
		return false, err
	}
	parent, ok := g.store.Get(parentID)
	if !ok {
		return false, errors.WithFields(
			errors.New(errors.InvalidLineage, "selector returned unknown candidate"),
			errors.Fields{"candidate_id": parentID})
	}

	indices, batch := g.sampleMinibatch(trainExamples)
	components := g.nextComponents(parent)

	g.state = StateProposing
	child, childScores, err := g.mutation.Propose(ctx, parent, batch, indices, components, g.evaluate)
	if err != nil {
		return false, err
	}
	if child == nil {
		return false, nil
	}

	g.state = StateEvaluating
	if !g.budget.CanAfford(len(valExamples)) {
		// The iteration pre-check covers this; a racing policy change could
		// not, since the loop is single threaded. Treated as exhaustion.
		g.state = StateExhausted
		return false, nil
	}
	valEval, err := g.evaluate(ctx, child, valExamples, false)
	if err != nil {
		return false, err
	}
	child.ValScores = valEval.Scores

	if g.config.AcceptOnValidation && child.AggregateScore() <= parent.AggregateScore() {
		logger.Debug(ctx, "mutation child of %d rejected on validation: %.4f vs %.4f",
			parent.ID, child.AggregateScore(), parent.AggregateScore())
		return false, nil
	}

	g.state = StateAccepting
	childID, err := g.store.Insert(ctx, child)
	if err != nil {
		return false, err
	}
	g.archive.Update(child)
	if len(childScores) > 0 {
		g.mutation.RecordScores(childID, indices, childScores)
	}
	logger.Info(ctx, "accepted mutation child %d of parent %d: aggregate=%.4f budget_used=%d",
		childID, parent.ID, child.AggregateScore(), g.budget.Used())
	return true, nil
}

// mergeStep runs one crossover proposal end to end.
func (g *GEPA) mergeStep(ctx context.Context, valExamples []core.Example) (bool, error) {
	logger := logging.GetLogger()

	g.state = StateSelecting
	firstID, err := g.selector.Select(g.rng)
	if err != nil {
		return false, err
	}
	secondID, err := g.selector.Select(g.rng)
	if err != nil {
		return false, err
	}
	if firstID == secondID {
		return false, errors.New(errors.IncompatibleLineage, "selector picked the same parent twice")
	}
	parentA, _ := g.store.Get(firstID)
	parentB, _ := g.store.Get(secondID)

	g.state = StateProposing
	child, err := g.merge.Propose(ctx, parentA, parentB)
	if err != nil {
		return false, err
	}

	g.state = StateEvaluating
	valEval, err := g.evaluate(ctx, child, valExamples, false)
	if err != nil {
		return false, err
	}
	child.ValScores = valEval.Scores

	if !AcceptMerge(child, parentA, parentB) {
		logger.Debug(ctx, "merge child of %d and %d rejected: %.4f vs %.4f/%.4f",
			parentA.ID, parentB.ID, child.AggregateScore(), parentA.AggregateScore(), parentB.AggregateScore())
		return false, nil
	}

	g.state = StateAccepting
	childID, err := g.store.Insert(ctx, child)
	if err != nil {
		return false, err
	}
	g.archive.Update(child)
	logger.Info(ctx, "accepted merge child %d of parents %d and %d: aggregate=%.4f budget_used=%d",
		childID, parentA.ID, parentB.ID, child.AggregateScore(), g.budget.Used())
	return true, nil
}

// evaluate scores a candidate against a batch through the adapter, spending
// the budget by the exact number of scoring operations performed. Callers
// pre-check affordability; evaluate refuses to overshoot regardless.
func (g *GEPA) evaluate(ctx context.Context, candidate *core.Candidate, batch []core.Example, captureTraces bool) (*core.EvalBatch, error) {
	if !g.budget.CanAfford(len(batch)) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "evaluation would overshoot the budget"),
			errors.Fields{"batch": len(batch), "remaining": g.budget.Remaining()})
	}
	result, err := g.adapter.Evaluate(ctx, candidate, batch, captureTraces)
	if err != nil {
		return nil, errors.Wrap(err, errors.AdapterEvaluationFailed, "adapter evaluation failed")
	}
	if len(result.Scores) != len(batch) {
		return nil, errors.WithFields(
			errors.New(errors.AdapterEvaluationFailed, "adapter returned wrong score count"),
			errors.Fields{"want": len(batch), "got": len(result.Scores)})
	}
	g.budget.Spend(len(batch))
	return result, nil
}

// sampleMinibatch draws a random minibatch of training examples, without
// replacement, sorted by index for deterministic adapter calls.
func (g *GEPA) sampleMinibatch(trainExamples []core.Example) ([]int, []core.Example) {
	size := g.config.ReflectionMinibatchSize
	if size > len(trainExamples) {
		size = len(trainExamples)
	}
	indices := g.rng.Perm(len(trainExamples))[:size]
	sort.Ints(indices)
	batch := make([]core.Example, len(indices))
	for i, index := range indices {
		batch[i] = trainExamples[index]
	}
	return indices, batch
}

// nextComponents picks the mutation targets for this iteration: one
// component, rotating through the candidate's components across iterations.
func (g *GEPA) nextComponents(parent *core.Candidate) []string {
	names := parent.ComponentNames()
	if len(names) == 0 {
		return nil
	}
	name := names[g.componentCursor%len(names)]
	g.componentCursor++
	return []string{name}
}

// minIterationCost is the smallest number of scoring calls the next
// iteration can possibly need; the loop terminates when the remaining
// budget cannot cover it.
func (g *GEPA) minIterationCost(doMerge bool, trainExamples, valExamples []core.Example) int {
	if doMerge {
		return len(valExamples)
	}
	batch := g.config.ReflectionMinibatchSize
	if batch > len(trainExamples) {
		batch = len(trainExamples)
	}
	if g.config.AcceptOnValidation {
		return batch + len(valExamples)
	}
	return 2*batch + len(valExamples)
}

func (g *GEPA) buildSelector() Selector {
	if g.config.SelectionStrategy == StrategyTournament {
		return &TournamentSelector{
			Store:           g.store,
			K:               g.config.TournamentSize,
			WithReplacement: g.config.TournamentWithReplacement,
		}
	}
	return &ParetoSelector{
		Archive:  g.archive,
		Sampling: g.config.ParetoSampling,
	}
}

func (g *GEPA) buildResult(ctx context.Context, iterations int) (*Result, error) {
	best, err := g.store.BestOverall()
	if err != nil {
		return nil, err
	}

	candidates := g.store.Candidates()
	allScores := make([][]float64, len(candidates))
	for i, candidate := range candidates {
		scores := make([]float64, len(candidate.ValScores))
		copy(scores, candidate.ValScores)
		allScores[i] = scores
	}

	logging.GetLogger().Info(ctx, "run %s done: best=%d score=%.4f candidates=%d evaluations=%d",
		g.runID, best.ID, best.AggregateScore(), len(candidates), g.budget.Used())

	return &Result{
		RunID:            g.runID,
		BestCandidate:    best,
		BestScore:        best.AggregateScore(),
		AllCandidates:    candidates,
		AllScores:        allScores,
		TotalEvaluations: g.budget.Used(),
		Iterations:       iterations,
	}, nil
}
