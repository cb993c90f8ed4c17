package optimizer

import (
	"github.com/lexweave/gepa/pkg/core"
)

// Result is returned to the caller when the run terminates, whether by
// budget exhaustion, stagnation, or cancellation. Partial results are
// always valid.
type Result struct {
	RunID            string            `json:"run_id"`
	BestCandidate    *core.Candidate   `json:"best_candidate"`
	BestScore        float64           `json:"best_score"`
	AllCandidates    []*core.Candidate `json:"all_candidates"`
	AllScores        [][]float64       `json:"all_scores"`
	TotalEvaluations int               `json:"total_evaluations"`
	Iterations       int               `json:"iterations"`
}
