package datasets

import (
	"context"
	"fmt"

	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/apache/arrow/go/v13/parquet/file"
	"github.com/apache/arrow/go/v13/parquet/pqarrow"

	"github.com/lexweave/gepa/pkg/core"
)

// LoadGSM8K downloads (once) and decodes the GSM8K test split into examples
// with a "question" input and an "answer" output.
func LoadGSM8K() ([]core.Example, error) {
	datasetPath, err := EnsureDataset("gsm8k")
	if err != nil {
		return nil, err
	}

	reader, err := file.OpenParquetFile(datasetPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer reader.Close()

	arrowReader, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	questionIndices := schema.FieldIndices("question")
	answerIndices := schema.FieldIndices("answer")
	if len(questionIndices) == 0 || len(answerIndices) == 0 {
		return nil, fmt.Errorf("columns 'question' and 'answer' not found in schema")
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer table.Release()

	questionCol := table.Column(questionIndices[0])
	answerCol := table.Column(answerIndices[0])

	examples := make([]core.Example, table.NumRows())
	for i := 0; i < int(table.NumRows()); i++ {
		questionChunk := questionCol.Data().Chunk(0)
		answerChunk := answerCol.Data().Chunk(0)

		examples[i] = core.Example{
			Inputs: map[string]interface{}{
				"question": questionChunk.(*array.String).Value(i),
			},
			Outputs: map[string]interface{}{
				"answer": answerChunk.(*array.String).Value(i),
			},
		}
	}

	return examples, nil
}
