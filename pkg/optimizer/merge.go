package optimizer

import (
	"context"
	"math"

	"github.com/lexweave/gepa/pkg/core"
	"github.com/lexweave/gepa/pkg/errors"
	"github.com/lexweave/gepa/pkg/logging"
)

// MergeProposer produces one child candidate by per-component crossover of
// two lineage-related parents. Crossover is only meaningful when both
// parents derive from a shared baseline: it guarantees every component
// existed in some common ancestor form, so swapping is well-typed.
type MergeProposer struct {
	Store *core.Store
}

// Propose builds a merge child of parents a and b, or returns nil when the
// proposal is discarded. The child is evaluated against the validation set
// by the engine; acceptance requires strictly beating both parents.
func (p *MergeProposer) Propose(ctx context.Context, a, b *core.Candidate) (*core.Candidate, error) {
	if a.ID == b.ID {
		return nil, errors.New(errors.IncompatibleLineage, "merge requires two distinct parents")
	}
	if !p.Store.ShareAncestor(a.ID, b.ID) {
		return nil, errors.WithFields(
			errors.New(errors.IncompatibleLineage, "parents share no common ancestor"),
			errors.Fields{"parent_a": a.ID, "parent_b": b.ID})
	}

	ancestor := p.nearestCommonAncestor(a.ID, b.ID)

	merged := make(map[string]string, len(a.Components))
	preferA := desirabilityFavorsA(a, b)
	for name, aText := range a.Components {
		bText, ok := b.Components[name]
		if !ok || aText == bText {
			merged[name] = aText
			continue
		}

		// When exactly one parent diverged from the shared baseline, the
		// diverged version carries that parent's learning; take it.
		if ancestor != nil {
			ancText, hasAnc := ancestor.Components[name]
			if hasAnc {
				aDiverged := aText != ancText
				bDiverged := bText != ancText
				if aDiverged && !bDiverged {
					merged[name] = aText
					continue
				}
				if bDiverged && !aDiverged {
					merged[name] = bText
					continue
				}
			}
		}

		// Both diverged (or no ancestor text): fall back to the parent with
		// the higher per-instance validation record, ties preferring A.
		if preferA {
			merged[name] = aText
		} else {
			merged[name] = bText
		}
	}
	// Components only B carries.
	for name, bText := range b.Components {
		if _, ok := merged[name]; !ok {
			merged[name] = bText
		}
	}

	child := core.NewCandidate(merged, []int{a.ID, b.ID}, core.MethodMerge)
	logging.GetLogger().Debug(ctx, "merge child proposed from parents %d and %d", a.ID, b.ID)
	return child, nil
}

// nearestCommonAncestor returns the common ancestor with the highest id, the
// most recent shared baseline of both lineages. Nil when none exists.
func (p *MergeProposer) nearestCommonAncestor(a, b int) *core.Candidate {
	ancestorsA := p.Store.Ancestors(a)
	best := -1
	for id := range p.Store.Ancestors(b) {
		if ancestorsA[id] && id > best && id != a && id != b {
			best = id
		}
	}
	if best < 0 {
		return nil
	}
	candidate, _ := p.Store.Get(best)
	return candidate
}

// desirabilityFavorsA compares per-instance validation scores on the union
// of instances where either parent was evaluated. Ties prefer parent A.
func desirabilityFavorsA(a, b *core.Candidate) bool {
	winsA, winsB := 0, 0
	limit := len(a.ValScores)
	if len(b.ValScores) > limit {
		limit = len(b.ValScores)
	}
	for i := 0; i < limit; i++ {
		aScore := math.Inf(-1)
		bScore := math.Inf(-1)
		if i < len(a.ValScores) && !math.IsNaN(a.ValScores[i]) {
			aScore = a.ValScores[i]
		}
		if i < len(b.ValScores) && !math.IsNaN(b.ValScores[i]) {
			bScore = b.ValScores[i]
		}
		if math.IsInf(aScore, -1) && math.IsInf(bScore, -1) {
			continue
		}
		if aScore > bScore {
			winsA++
		} else if bScore > aScore {
			winsB++
		}
	}
	return winsA >= winsB
}

// AcceptMerge reports whether a merge child strictly beats both parents'
// aggregate validation scores.
func AcceptMerge(child, a, b *core.Candidate) bool {
	childScore := child.AggregateScore()
	if math.IsNaN(childScore) {
		return false
	}
	aScore := a.AggregateScore()
	bScore := b.AggregateScore()
	return (math.IsNaN(aScore) || childScore > aScore) &&
		(math.IsNaN(bScore) || childScore > bScore)
}
