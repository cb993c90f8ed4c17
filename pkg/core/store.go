package core

import (
	"context"
	"math"

	"github.com/lexweave/gepa/pkg/errors"
	"github.com/lexweave/gepa/pkg/logging"
)

// Store is the append-only record of every candidate ever created. Candidates
// are indexed by id, parent references are indices into the same arena, and
// the insert-time check that parents predate the child makes lineage cycles
// structurally impossible. Candidates are never removed; the store is the
// full optimization history.
type Store struct {
	candidates []*Candidate
	sink       HistorySink
	runID      string
}

// NewStore creates an empty candidate store. The sink may be nil; when set,
// every accepted insertion is reported to it.
func NewStore(runID string, sink HistorySink) *Store {
	return &Store{
		candidates: make([]*Candidate, 0),
		sink:       sink,
		runID:      runID,
	}
}

// Insert appends a candidate, assigns its id, and notifies the history sink.
// Fails with InvalidLineage when any parent id is unknown.
func (s *Store) Insert(ctx context.Context, candidate *Candidate) (int, error) {
	for _, parentID := range candidate.ParentIDs {
		if parentID < 0 || parentID >= len(s.candidates) {
			return -1, errors.WithFields(
				errors.New(errors.InvalidLineage, "candidate references unknown parent"),
				errors.Fields{"parent_id": parentID, "store_size": len(s.candidates)})
		}
	}

	candidate.ID = len(s.candidates)
	s.candidates = append(s.candidates, candidate)

	if s.sink != nil {
		if err := s.sink.RecordCandidate(ctx, s.runID, candidate); err != nil {
			// History is best effort; a sink failure must not lose the run.
			logging.GetLogger().Warn(ctx, "history sink rejected candidate %d: %v", candidate.ID, err)
		}
	}

	return candidate.ID, nil
}

// Get returns the candidate with the given id.
func (s *Store) Get(id int) (*Candidate, bool) {
	if id < 0 || id >= len(s.candidates) {
		return nil, false
	}
	return s.candidates[id], true
}

// Len returns the number of candidates inserted so far.
func (s *Store) Len() int {
	return len(s.candidates)
}

// Candidates returns the insertion-ordered candidate list. The slice is a
// copy; the candidates themselves are shared and treated as immutable.
func (s *Store) Candidates() []*Candidate {
	out := make([]*Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// BestOverall returns the candidate with the highest aggregate validation
// score. Ties break toward the earliest insertion, so repeated calls on an
// unchanged store are deterministic.
func (s *Store) BestOverall() (*Candidate, error) {
	var best *Candidate
	bestScore := math.Inf(-1)

	for _, candidate := range s.candidates {
		score := candidate.AggregateScore()
		if math.IsNaN(score) {
			continue
		}
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}

	if best == nil {
		return nil, errors.New(errors.EmptyArchive, "no candidate has been evaluated")
	}
	return best, nil
}

// Ancestors returns the transitive ancestor id set of a candidate, including
// the candidate itself.
func (s *Store) Ancestors(id int) map[int]bool {
	seen := make(map[int]bool)
	stack := []int{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[current] {
			continue
		}
		seen[current] = true
		if candidate, ok := s.Get(current); ok {
			stack = append(stack, candidate.ParentIDs...)
		}
	}
	return seen
}

// ShareAncestor reports whether two candidates derive from a shared baseline.
func (s *Store) ShareAncestor(a, b int) bool {
	ancestorsA := s.Ancestors(a)
	for id := range s.Ancestors(b) {
		if ancestorsA[id] {
			return true
		}
	}
	return false
}
