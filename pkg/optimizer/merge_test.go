package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexweave/gepa/pkg/core"
	"github.com/lexweave/gepa/pkg/errors"
)

// mergeFixture builds a store with a seed and two mutated children:
//
//	0: seed            {instructions: base, style: base}
//	1: child of 0      {instructions: refined-a, style: base}
//	2: child of 0      {instructions: base, style: refined-b}
func mergeFixture(t *testing.T) (*core.Store, *core.Candidate, *core.Candidate) {
	t.Helper()
	store := core.NewStore("run-1", nil)

	seed := core.NewCandidate(map[string]string{
		"instructions": "base instructions",
		"style":        "base style",
	}, nil, core.MethodSeed)
	seed.ValScores = []float64{0.2, 0.2}
	_, err := store.Insert(context.Background(), seed)
	require.NoError(t, err)

	childA := core.NewCandidate(map[string]string{
		"instructions": "refined instructions",
		"style":        "base style",
	}, []int{0}, core.MethodMutate)
	childA.ValScores = []float64{0.8, 0.2}
	_, err = store.Insert(context.Background(), childA)
	require.NoError(t, err)

	childB := core.NewCandidate(map[string]string{
		"instructions": "base instructions",
		"style":        "refined style",
	}, []int{0}, core.MethodMutate)
	childB.ValScores = []float64{0.2, 0.8}
	_, err = store.Insert(context.Background(), childB)
	require.NoError(t, err)

	return store, childA, childB
}

func TestMergeTakesDivergedComponentFromEachParent(t *testing.T) {
	store, childA, childB := mergeFixture(t)
	proposer := &MergeProposer{Store: store}

	merged, err := proposer.Propose(context.Background(), childA, childB)
	require.NoError(t, err)

	assert.Equal(t, "refined instructions", merged.Components["instructions"])
	assert.Equal(t, "refined style", merged.Components["style"])
	assert.Equal(t, []int{1, 2}, merged.ParentIDs)
	assert.Equal(t, core.MethodMerge, merged.Method)
	assert.False(t, merged.Evaluated(), "the engine evaluates merge children")
}

func TestMergeRejectsSameParent(t *testing.T) {
	store, childA, _ := mergeFixture(t)
	proposer := &MergeProposer{Store: store}

	_, err := proposer.Propose(context.Background(), childA, childA)
	require.Error(t, err)
	assert.Equal(t, errors.IncompatibleLineage, errors.Code(err))
	assert.True(t, errors.IsRecoverable(err))
}

func TestMergeRejectsUnrelatedParents(t *testing.T) {
	store := core.NewStore("run-1", nil)
	a := core.NewCandidate(map[string]string{"p": "a"}, nil, core.MethodSeed)
	b := core.NewCandidate(map[string]string{"p": "b"}, nil, core.MethodSeed)
	_, err := store.Insert(context.Background(), a)
	require.NoError(t, err)
	_, err = store.Insert(context.Background(), b)
	require.NoError(t, err)

	proposer := &MergeProposer{Store: store}
	_, err = proposer.Propose(context.Background(), a, b)
	require.Error(t, err)
	assert.Equal(t, errors.IncompatibleLineage, errors.Code(err))
}

func TestMergeBothDivergedFavorsDesirability(t *testing.T) {
	store := core.NewStore("run-1", nil)

	seed := core.NewCandidate(map[string]string{"prompt": "base"}, nil, core.MethodSeed)
	seed.ValScores = []float64{0.1, 0.1}
	_, err := store.Insert(context.Background(), seed)
	require.NoError(t, err)

	a := core.NewCandidate(map[string]string{"prompt": "variant a"}, []int{0}, core.MethodMutate)
	a.ValScores = []float64{0.3, 0.3}
	_, err = store.Insert(context.Background(), a)
	require.NoError(t, err)

	b := core.NewCandidate(map[string]string{"prompt": "variant b"}, []int{0}, core.MethodMutate)
	b.ValScores = []float64{0.9, 0.9}
	_, err = store.Insert(context.Background(), b)
	require.NoError(t, err)

	proposer := &MergeProposer{Store: store}
	merged, err := proposer.Propose(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "variant b", merged.Components["prompt"], "the parent with more per-instance wins supplies the component")
}

func TestMergeDesirabilityTiePrefersA(t *testing.T) {
	store := core.NewStore("run-1", nil)

	seed := core.NewCandidate(map[string]string{"prompt": "base"}, nil, core.MethodSeed)
	_, err := store.Insert(context.Background(), seed)
	require.NoError(t, err)

	a := core.NewCandidate(map[string]string{"prompt": "variant a"}, []int{0}, core.MethodMutate)
	a.ValScores = []float64{0.7, 0.3}
	_, err = store.Insert(context.Background(), a)
	require.NoError(t, err)

	b := core.NewCandidate(map[string]string{"prompt": "variant b"}, []int{0}, core.MethodMutate)
	b.ValScores = []float64{0.3, 0.7}
	_, err = store.Insert(context.Background(), b)
	require.NoError(t, err)

	proposer := &MergeProposer{Store: store}
	merged, err := proposer.Propose(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, "variant a", merged.Components["prompt"])
}

func TestAcceptMerge(t *testing.T) {
	parentA := scoredCandidate(1, 0.4, 0.4)
	parentB := scoredCandidate(2, 0.6, 0.6)

	tests := []struct {
		name        string
		childScores []float64
		want        bool
	}{
		{name: "beats both parents", childScores: []float64{0.8, 0.8}, want: true},
		{name: "ties the stronger parent", childScores: []float64{0.6, 0.6}, want: false},
		{name: "beats only the weaker parent", childScores: []float64{0.5, 0.5}, want: false},
		{name: "unevaluated child", childScores: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			child := scoredCandidate(3, tt.childScores...)
			assert.Equal(t, tt.want, AcceptMerge(child, parentA, parentB))
		})
	}
}
