package optimizer

import (
	"math"
	"sort"

	"github.com/lexweave/gepa/pkg/core"
)

// ParetoArchive is a derived index over the candidate store: for each
// validation instance it tracks the best score observed and the set of
// candidate ids achieving it. Ties are kept, not broken, at this layer.
// Best scores are monotonically non-decreasing over the run.
type ParetoArchive struct {
	bestScores []float64
	frontiers  []map[int]bool
}

// NewParetoArchive creates an archive over numInstances validation instances.
func NewParetoArchive(numInstances int) *ParetoArchive {
	bestScores := make([]float64, numInstances)
	frontiers := make([]map[int]bool, numInstances)
	for i := range bestScores {
		bestScores[i] = math.Inf(-1)
		frontiers[i] = make(map[int]bool)
	}
	return &ParetoArchive{
		bestScores: bestScores,
		frontiers:  frontiers,
	}
}

// Update folds an accepted candidate into the archive. Strictly greater
// scores clear and replace the frontier for that instance; equal scores
// append to it. Unevaluated instances (NaN) are skipped.
func (a *ParetoArchive) Update(candidate *core.Candidate) {
	for i, score := range candidate.ValScores {
		if i >= len(a.bestScores) || math.IsNaN(score) {
			continue
		}
		switch {
		case score > a.bestScores[i]:
			a.bestScores[i] = score
			a.frontiers[i] = map[int]bool{candidate.ID: true}
		case score == a.bestScores[i]:
			a.frontiers[i][candidate.ID] = true
		}
	}
}

// NumInstances returns the number of validation instances tracked.
func (a *ParetoArchive) NumInstances() int {
	return len(a.bestScores)
}

// BestScore returns the best score observed for instance i, or -Inf when the
// instance has never been scored.
func (a *ParetoArchive) BestScore(i int) float64 {
	return a.bestScores[i]
}

// FrontierMembers returns the candidate ids achieving BestScore(i), sorted
// ascending for deterministic iteration.
func (a *ParetoArchive) FrontierMembers(i int) []int {
	members := make([]int, 0, len(a.frontiers[i]))
	for id := range a.frontiers[i] {
		members = append(members, id)
	}
	sort.Ints(members)
	return members
}

// Empty reports whether no candidate appears in any frontier yet.
func (a *ParetoArchive) Empty() bool {
	for _, frontier := range a.frontiers {
		if len(frontier) > 0 {
			return false
		}
	}
	return true
}

// selectionScores accumulates, for every candidate present in any frontier,
// the sum of instance weights w[i] = 1/|frontier[i]|. Instances dominated by
// fewer candidates count more, so a candidate that uniquely dominates a rare
// instance outweighs one that merely ties on many easy ones.
func (a *ParetoArchive) selectionScores() map[int]float64 {
	scores := make(map[int]float64)
	for i := range a.frontiers {
		size := len(a.frontiers[i])
		if size == 0 {
			continue
		}
		weight := 1.0 / float64(size)
		for id := range a.frontiers[i] {
			scores[id] += weight
		}
	}
	return scores
}
