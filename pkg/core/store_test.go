package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexweave/gepa/pkg/errors"
)

func insertCandidate(t *testing.T, store *Store, parents []int, scores []float64) *Candidate {
	t.Helper()
	candidate := NewCandidate(map[string]string{"prompt": "text"}, parents, MethodMutate)
	candidate.ValScores = scores
	_, err := store.Insert(context.Background(), candidate)
	require.NoError(t, err)
	return candidate
}

func TestStoreInsertAssignsSequentialIDs(t *testing.T) {
	store := NewStore("run-1", nil)

	first := insertCandidate(t, store, nil, []float64{1.0})
	second := insertCandidate(t, store, []int{0}, []float64{0.5})

	assert.Equal(t, 0, first.ID)
	assert.Equal(t, 1, second.ID)
	assert.Equal(t, 2, store.Len())

	got, ok := store.Get(1)
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestStoreInsertRejectsUnknownParent(t *testing.T) {
	store := NewStore("run-1", nil)

	tests := []struct {
		name    string
		parents []int
	}{
		{name: "forward reference", parents: []int{0}},
		{name: "negative id", parents: []int{-1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := NewCandidate(map[string]string{"p": "x"}, tt.parents, MethodMutate)
			_, err := store.Insert(context.Background(), candidate)
			require.Error(t, err)
			assert.Equal(t, errors.InvalidLineage, errors.Code(err))
		})
	}

	assert.Equal(t, 0, store.Len(), "rejected candidates must not be stored")
}

func TestStoreGetOutOfRange(t *testing.T) {
	store := NewStore("run-1", nil)
	insertCandidate(t, store, nil, nil)

	_, ok := store.Get(5)
	assert.False(t, ok)
	_, ok = store.Get(-1)
	assert.False(t, ok)
}

func TestBestOverall(t *testing.T) {
	store := NewStore("run-1", nil)

	_, err := store.BestOverall()
	require.Error(t, err)
	assert.Equal(t, errors.EmptyArchive, errors.Code(err))

	insertCandidate(t, store, nil, []float64{0.2, 0.4})
	best := insertCandidate(t, store, []int{0}, []float64{0.9, 0.7})
	insertCandidate(t, store, []int{0}, []float64{0.8, 0.8})

	got, err := store.BestOverall()
	require.NoError(t, err)
	assert.Same(t, best, got)
}

func TestBestOverallTieBreaksToEarliest(t *testing.T) {
	store := NewStore("run-1", nil)
	earliest := insertCandidate(t, store, nil, []float64{0.5, 0.5})
	insertCandidate(t, store, []int{0}, []float64{0.5, 0.5})

	got, err := store.BestOverall()
	require.NoError(t, err)
	assert.Same(t, earliest, got)
}

func TestBestOverallSkipsUnevaluated(t *testing.T) {
	store := NewStore("run-1", nil)
	insertCandidate(t, store, nil, nil)
	evaluated := insertCandidate(t, store, []int{0}, []float64{0.1})

	got, err := store.BestOverall()
	require.NoError(t, err)
	assert.Same(t, evaluated, got)
}

func TestAncestors(t *testing.T) {
	store := NewStore("run-1", nil)
	// 0 seed, 1 and 2 mutate from 0, 3 merges 1 and 2, 4 stands alone apart
	// from a second seed lineage.
	insertCandidate(t, store, nil, nil)
	insertCandidate(t, store, []int{0}, nil)
	insertCandidate(t, store, []int{0}, nil)
	insertCandidate(t, store, []int{1, 2}, nil)
	insertCandidate(t, store, nil, nil)

	ancestors := store.Ancestors(3)
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true, 3: true}, ancestors)

	assert.True(t, store.ShareAncestor(1, 2), "siblings share the seed")
	assert.True(t, store.ShareAncestor(3, 0), "descendant shares with its root")
	assert.False(t, store.ShareAncestor(1, 4), "separate seed lineages are unrelated")
}

type recordingSink struct {
	recorded []int
	err      error
}

func (s *recordingSink) RecordCandidate(ctx context.Context, runID string, candidate *Candidate) error {
	s.recorded = append(s.recorded, candidate.ID)
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func TestStoreNotifiesSink(t *testing.T) {
	sink := &recordingSink{}
	store := NewStore("run-1", sink)

	insertCandidate(t, store, nil, nil)
	insertCandidate(t, store, []int{0}, nil)

	assert.Equal(t, []int{0, 1}, sink.recorded)
}

func TestStoreSinkFailureDoesNotLoseCandidate(t *testing.T) {
	sink := &recordingSink{err: errors.New(errors.Unknown, "disk full")}
	store := NewStore("run-1", sink)

	candidate := insertCandidate(t, store, nil, nil)
	assert.Equal(t, 0, candidate.ID)
	assert.Equal(t, 1, store.Len())
}
