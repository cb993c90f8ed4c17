package datasets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexweave/gepa/pkg/core"
)

func numberedExamples(n int) []core.Example {
	examples := make([]core.Example, n)
	for i := range examples {
		examples[i] = core.Example{
			Inputs:  map[string]interface{}{"question": fmt.Sprintf("q%d", i)},
			Outputs: map[string]interface{}{"answer": fmt.Sprintf("a%d", i)},
		}
	}
	return examples
}

func TestInMemoryDatasetIteration(t *testing.T) {
	dataset := NewInMemoryDataset(numberedExamples(3))
	assert.Equal(t, 3, dataset.Len())

	seen := 0
	for {
		example, ok := dataset.Next()
		if !ok {
			break
		}
		assert.Equal(t, fmt.Sprintf("q%d", seen), example.Inputs["question"])
		seen++
	}
	assert.Equal(t, 3, seen)

	_, ok := dataset.Next()
	assert.False(t, ok, "iteration past the end keeps returning false")

	dataset.Reset()
	example, ok := dataset.Next()
	require.True(t, ok)
	assert.Equal(t, "q0", example.Inputs["question"])
}

func TestCollectExamplesDrainsAndResets(t *testing.T) {
	dataset := NewInMemoryDataset(numberedExamples(4))
	dataset.Next()
	dataset.Next()

	collected := core.CollectExamples(dataset)
	assert.Len(t, collected, 4, "collection starts from the beginning regardless of cursor")

	_, ok := dataset.Next()
	assert.True(t, ok, "the dataset is reset after collection")
}

func TestSplitProportions(t *testing.T) {
	examples := numberedExamples(10)

	train, val := Split(examples, 0.7, 1)
	assert.Len(t, train, 7)
	assert.Len(t, val, 3)

	// Every example lands in exactly one side.
	seen := make(map[interface{}]bool)
	for _, example := range append(append([]core.Example{}, train...), val...) {
		seen[example.Inputs["question"]] = true
	}
	assert.Len(t, seen, 10)
}

func TestSplitDeterministicForSeed(t *testing.T) {
	examples := numberedExamples(8)

	trainA, valA := Split(examples, 0.5, 42)
	trainB, valB := Split(examples, 0.5, 42)
	assert.Equal(t, trainA, trainB)
	assert.Equal(t, valA, valB)
}

func TestSplitEdgeFractions(t *testing.T) {
	examples := numberedExamples(4)

	train, val := Split(examples, 0.0, 1)
	assert.Empty(t, train)
	assert.Len(t, val, 4)

	train, val = Split(examples, 1.0, 1)
	assert.Len(t, train, 4)
	assert.Empty(t, val)

	train, val = Split(nil, 0.5, 1)
	assert.Empty(t, train)
	assert.Empty(t, val)
}
