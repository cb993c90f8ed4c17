// Package datasets provides dataset loading and iteration for optimization
// runs: an in-memory implementation of the core Dataset contract, a
// train/validation split helper, and loaders for public benchmark sets.
package datasets

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"

	"github.com/lexweave/gepa/pkg/core"
)

const (
	GSM8KDatasetURL = "https://huggingface.co/datasets/openai/gsm8k/resolve/main/main/test-00000-of-00001.parquet"
)

// InMemoryDataset is a slice-backed core.Dataset.
type InMemoryDataset struct {
	examples []core.Example
	position int
}

// NewInMemoryDataset wraps a slice of examples.
func NewInMemoryDataset(examples []core.Example) *InMemoryDataset {
	return &InMemoryDataset{examples: examples}
}

func (d *InMemoryDataset) Next() (core.Example, bool) {
	if d.position >= len(d.examples) {
		return core.Example{}, false
	}
	example := d.examples[d.position]
	d.position++
	return example, true
}

func (d *InMemoryDataset) Reset() {
	d.position = 0
}

// Len returns the number of examples.
func (d *InMemoryDataset) Len() int {
	return len(d.examples)
}

// Split shuffles examples with the given seed and divides them into train
// and validation sets, with trainFraction of the data going to train.
func Split(examples []core.Example, trainFraction float64, seed int64) (train, val []core.Example) {
	shuffled := make([]core.Example, len(examples))
	copy(shuffled, examples)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(float64(len(shuffled)) * trainFraction)
	if cut < 0 {
		cut = 0
	}
	if cut > len(shuffled) {
		cut = len(shuffled)
	}
	return shuffled[:cut], shuffled[cut:]
}

// EnsureDataset downloads a named dataset on first use and returns its local
// path under the user's cache directory.
func EnsureDataset(datasetName string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	var suffix string
	switch datasetName {
	case "gsm8k":
		suffix = ".parquet"
	default:
		suffix = ".parquet"
	}

	datasetDir := filepath.Join(homeDir, ".gepa", "datasets")
	if err := os.MkdirAll(datasetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create dataset directory: %w", err)
	}

	datasetPath := filepath.Join(datasetDir, datasetName+suffix)

	if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
		if err := downloadDataset(datasetName, datasetPath); err != nil {
			return "", fmt.Errorf("failed to download dataset: %w", err)
		}
	}

	return datasetPath, nil
}

func downloadDataset(datasetName, datasetPath string) error {
	var url string
	switch datasetName {
	case "gsm8k":
		url = GSM8KDatasetURL
	default:
		return fmt.Errorf("unknown dataset: %s", datasetName)
	}

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download dataset: %w", err)
	}
	defer resp.Body.Close()

	out, err := os.Create(datasetPath)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	return nil
}
