package history

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexweave/gepa/pkg/core"
)

func newTestSink(t *testing.T) *SQLiteSink {
	t.Helper()
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestRecordAndReadBack(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	seed := core.NewCandidate(map[string]string{"system_prompt": "be brief"}, nil, core.MethodSeed)
	seed.ID = 0
	seed.ValScores = []float64{0.5, 1.0}
	require.NoError(t, sink.RecordCandidate(ctx, "run-a", seed))

	child := core.NewCandidate(map[string]string{"system_prompt": "be thorough"}, []int{0}, core.MethodMutate)
	child.ID = 1
	child.ValScores = []float64{1.0, 1.0}
	require.NoError(t, sink.RecordCandidate(ctx, "run-a", child))

	records, err := sink.Candidates(ctx, "run-a")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 0, records[0].CandidateID)
	assert.Equal(t, "seed", records[0].Method)
	assert.Empty(t, records[0].ParentIDs)
	assert.InDelta(t, 0.75, records[0].Aggregate, 1e-9)

	assert.Equal(t, 1, records[1].CandidateID)
	assert.Equal(t, "mutate", records[1].Method)
	assert.Equal(t, []int{0}, records[1].ParentIDs)
	assert.Equal(t, "be thorough", records[1].Components["system_prompt"])
}

func TestRecordUnevaluatedCandidate(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	candidate := core.NewCandidate(map[string]string{"p": "x"}, nil, core.MethodSeed)
	candidate.ID = 0
	candidate.ValScores = []float64{math.NaN(), 0.5}
	require.NoError(t, sink.RecordCandidate(ctx, "run-b", candidate))

	records, err := sink.Candidates(ctx, "run-b")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 0.5, records[0].Aggregate, 1e-9)
}

func TestRunsAreIsolated(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	candidate := core.NewCandidate(map[string]string{"p": "x"}, nil, core.MethodSeed)
	candidate.ID = 0
	require.NoError(t, sink.RecordCandidate(ctx, "run-a", candidate))
	require.NoError(t, sink.RecordCandidate(ctx, "run-b", candidate))

	records, err := sink.Candidates(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = sink.Candidates(ctx, "run-c")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDuplicateInsertFails(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	candidate := core.NewCandidate(map[string]string{"p": "x"}, nil, core.MethodSeed)
	candidate.ID = 0
	require.NoError(t, sink.RecordCandidate(ctx, "run-a", candidate))
	assert.Error(t, sink.RecordCandidate(ctx, "run-a", candidate), "the (run, candidate) pair is the primary key")
}

func TestNoopSink(t *testing.T) {
	sink := &NoopSink{}
	assert.NoError(t, sink.RecordCandidate(context.Background(), "run", &core.Candidate{}))
	assert.NoError(t, sink.Close())
}
