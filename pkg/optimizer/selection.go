package optimizer

import (
	"math"
	"math/rand"
	"sort"

	"github.com/lexweave/gepa/pkg/core"
	"github.com/lexweave/gepa/pkg/errors"
)

// Selector picks the id of a parent candidate for the next proposal.
// Selection never mutates shared state, so repeated calls on an unchanged
// archive or store draw from an unchanged distribution.
type Selector interface {
	Select(rng *rand.Rand) (int, error)
}

// ParetoSelector samples parents from the Pareto archive, weighting each
// candidate by the sum of inverse frontier sizes of the instances it
// dominates. Sampling policy is configurable: weighted draw or argmax.
type ParetoSelector struct {
	Archive  *ParetoArchive
	Sampling string // SamplingWeighted or SamplingArgmax
}

// Select returns a candidate id, or EmptyArchive when no candidate has any
// validation score yet (the seed must be evaluated first).
func (s *ParetoSelector) Select(rng *rand.Rand) (int, error) {
	scores := s.Archive.selectionScores()
	if len(scores) == 0 {
		return -1, errors.New(errors.EmptyArchive, "pareto archive has no evaluated candidates")
	}

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	if s.Sampling == SamplingArgmax {
		bestID := ids[0]
		bestScore := scores[bestID]
		for _, id := range ids[1:] {
			if scores[id] > bestScore {
				bestID = id
				bestScore = scores[id]
			}
		}
		return bestID, nil
	}

	total := 0.0
	for _, id := range ids {
		total += scores[id]
	}
	draw := rng.Float64() * total
	for _, id := range ids {
		draw -= scores[id]
		if draw <= 0 {
			return id, nil
		}
	}
	// Floating point slack lands on the last id.
	return ids[len(ids)-1], nil
}

// TournamentSelector draws K candidates at random from the full store and
// returns the one with the highest aggregate validation score. Deterministic
// given a seeded random source.
type TournamentSelector struct {
	Store           *core.Store
	K               int
	WithReplacement bool
}

// Select returns a candidate id, or InsufficientPopulation when the store
// holds fewer than K candidates.
func (s *TournamentSelector) Select(rng *rand.Rand) (int, error) {
	population := s.Store.Len()
	if population < s.K {
		return -1, errors.WithFields(
			errors.New(errors.InsufficientPopulation, "store smaller than tournament size"),
			errors.Fields{"population": population, "tournament_size": s.K})
	}

	var drawn []int
	if s.WithReplacement {
		drawn = make([]int, s.K)
		for i := range drawn {
			drawn[i] = rng.Intn(population)
		}
	} else {
		drawn = rng.Perm(population)[:s.K]
	}

	bestID := -1
	bestScore := math.Inf(-1)
	for _, id := range drawn {
		candidate, _ := s.Store.Get(id)
		score := candidate.AggregateScore()
		if math.IsNaN(score) {
			continue
		}
		// Ties break toward the earliest insertion.
		if score > bestScore || (score == bestScore && id < bestID) {
			bestID = id
			bestScore = score
		}
	}
	if bestID < 0 {
		// Every drawn candidate is unevaluated; fall back to the lowest id so
		// the caller still gets a valid parent.
		sort.Ints(drawn)
		bestID = drawn[0]
	}
	return bestID, nil
}
