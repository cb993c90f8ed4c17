package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCandidate(t *testing.T) {
	components := map[string]string{
		"system_prompt": "be helpful",
		"format_hint":   "answer in one word",
	}
	candidate := NewCandidate(components, []int{0, 1}, MethodMerge)

	assert.Equal(t, -1, candidate.ID, "store assigns the id at insertion")
	assert.Equal(t, MethodMerge, candidate.Method)
	assert.Equal(t, []int{0, 1}, candidate.ParentIDs)
	assert.True(t, math.IsNaN(candidate.TrainScore))
	assert.False(t, candidate.Evaluated())

	// Later writes through the caller's map must not leak in.
	components["system_prompt"] = "mutated"
	assert.Equal(t, "be helpful", candidate.Components["system_prompt"])
}

func TestCandidateClone(t *testing.T) {
	original := NewCandidate(map[string]string{"prompt": "v1"}, []int{0}, MethodMutate)
	original.ID = 3
	original.ValScores = []float64{0.5, 1.0}

	clone := original.Clone()
	clone.Components["prompt"] = "v2"
	clone.ValScores[0] = 0.0
	clone.ParentIDs[0] = 9

	assert.Equal(t, "v1", original.Components["prompt"])
	assert.Equal(t, 0.5, original.ValScores[0])
	assert.Equal(t, 0, original.ParentIDs[0])
	assert.Equal(t, original.ID, clone.ID)
}

func TestComponentNamesSorted(t *testing.T) {
	candidate := NewCandidate(map[string]string{
		"zeta":  "z",
		"alpha": "a",
		"mid":   "m",
	}, nil, MethodSeed)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, candidate.ComponentNames())
}

func TestAggregateScore(t *testing.T) {
	tests := []struct {
		name      string
		valScores []float64
		want      float64
		wantNaN   bool
	}{
		{
			name:      "mean of all instances",
			valScores: []float64{1.0, 0.0, 0.5},
			want:      0.5,
		},
		{
			name:      "NaN instances are skipped",
			valScores: []float64{1.0, math.NaN(), 0.0},
			want:      0.5,
		},
		{
			name:      "no scores",
			valScores: nil,
			wantNaN:   true,
		},
		{
			name:      "all NaN",
			valScores: []float64{math.NaN(), math.NaN()},
			wantNaN:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := NewCandidate(map[string]string{"p": "x"}, nil, MethodSeed)
			candidate.ValScores = tt.valScores

			got := candidate.AggregateScore()
			if tt.wantNaN {
				assert.True(t, math.IsNaN(got))
				assert.False(t, candidate.Evaluated())
			} else {
				assert.InDelta(t, tt.want, got, 1e-9)
				assert.True(t, candidate.Evaluated())
			}
		})
	}
}
