package core

import (
	"math"
	"sort"
	"time"
)

// GenerationMethod records how a candidate came to exist.
type GenerationMethod string

const (
	MethodSeed   GenerationMethod = "seed"
	MethodMutate GenerationMethod = "mutate"
	MethodMerge  GenerationMethod = "merge"
)

// Candidate is a named set of prompt components under optimization. The
// component mapping is never mutated after creation; all change happens by
// producing a new Candidate.
type Candidate struct {
	ID         int               `json:"id"`
	Components map[string]string `json:"components"`
	ParentIDs  []int             `json:"parent_ids"`
	Method     GenerationMethod  `json:"generation_method"`
	TrainScore float64           `json:"train_score"`
	ValScores  []float64         `json:"val_scores"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewCandidate builds an unevaluated candidate. The store assigns the ID at
// insertion time; until then ID is -1. The component map is copied so later
// writes by the caller cannot leak in.
func NewCandidate(components map[string]string, parentIDs []int, method GenerationMethod) *Candidate {
	comps := make(map[string]string, len(components))
	for name, text := range components {
		comps[name] = text
	}
	parents := make([]int, len(parentIDs))
	copy(parents, parentIDs)

	return &Candidate{
		ID:         -1,
		Components: comps,
		ParentIDs:  parents,
		Method:     method,
		TrainScore: math.NaN(),
		CreatedAt:  time.Now(),
	}
}

// Clone returns a deep copy of the candidate.
func (c *Candidate) Clone() *Candidate {
	comps := make(map[string]string, len(c.Components))
	for name, text := range c.Components {
		comps[name] = text
	}
	parents := make([]int, len(c.ParentIDs))
	copy(parents, c.ParentIDs)
	scores := make([]float64, len(c.ValScores))
	copy(scores, c.ValScores)

	return &Candidate{
		ID:         c.ID,
		Components: comps,
		ParentIDs:  parents,
		Method:     c.Method,
		TrainScore: c.TrainScore,
		ValScores:  scores,
		CreatedAt:  c.CreatedAt,
	}
}

// ComponentNames returns the component names in deterministic order.
func (c *Candidate) ComponentNames() []string {
	names := make([]string, 0, len(c.Components))
	for name := range c.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AggregateScore is the mean validation score over evaluated instances.
// Returns NaN when no instance has been evaluated yet.
func (c *Candidate) AggregateScore() float64 {
	sum := 0.0
	count := 0
	for _, score := range c.ValScores {
		if math.IsNaN(score) {
			continue
		}
		sum += score
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// Evaluated reports whether at least one validation instance has a score.
func (c *Candidate) Evaluated() bool {
	for _, score := range c.ValScores {
		if !math.IsNaN(score) {
			return true
		}
	}
	return false
}
