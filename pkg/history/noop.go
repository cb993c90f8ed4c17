package history

import (
	"context"

	"github.com/lexweave/gepa/pkg/core"
)

// NoopSink discards all history. Useful when a run needs no persistence.
type NoopSink struct{}

func (NoopSink) RecordCandidate(ctx context.Context, runID string, candidate *core.Candidate) error {
	return nil
}

func (NoopSink) Close() error {
	return nil
}
