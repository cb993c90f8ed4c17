package core

// Dataset represents a collection of examples for training/evaluation.
type Dataset interface {
	// Next returns the next example in the dataset
	Next() (Example, bool)
	// Reset resets the dataset iterator
	Reset()
}

// CollectExamples drains a dataset into a slice and resets it.
func CollectExamples(dataset Dataset) []Example {
	dataset.Reset()
	examples := make([]Example, 0)
	for {
		example, ok := dataset.Next()
		if !ok {
			break
		}
		examples = append(examples, example)
	}
	dataset.Reset()
	return examples
}
