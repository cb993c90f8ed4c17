// Package history persists the optimization history: every accepted
// candidate, its lineage, and its scores. The engine treats the sink as
// best effort; a history failure never loses a run.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lexweave/gepa/pkg/core"
)

// SQLiteSink records accepted candidates in a SQLite database, one row per
// insertion in acceptance order.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the history database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path == "" {
		path = "gepa_history.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sink := &SQLiteSink{db: db}
	if err := sink.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	// WAL keeps writes cheap while a reader tails the run.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return sink, nil
}

func (s *SQLiteSink) initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS candidates (
		run_id       TEXT NOT NULL,
		candidate_id INTEGER NOT NULL,
		method       TEXT NOT NULL,
		parent_ids   TEXT NOT NULL,
		components   TEXT NOT NULL,
		val_scores   TEXT NOT NULL,
		aggregate    REAL,
		created_at   TIMESTAMP NOT NULL,
		PRIMARY KEY (run_id, candidate_id)
	);
	CREATE INDEX IF NOT EXISTS idx_candidates_run ON candidates(run_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

// RecordCandidate implements core.HistorySink.
func (s *SQLiteSink) RecordCandidate(ctx context.Context, runID string, candidate *core.Candidate) error {
	parents, err := json.Marshal(candidate.ParentIDs)
	if err != nil {
		return err
	}
	components, err := json.Marshal(candidate.Components)
	if err != nil {
		return err
	}
	// NaN marks unevaluated instances and has no JSON encoding; store null.
	scoreValues := make([]interface{}, len(candidate.ValScores))
	for i, v := range candidate.ValScores {
		if !math.IsNaN(v) {
			scoreValues[i] = v
		}
	}
	scores, err := json.Marshal(scoreValues)
	if err != nil {
		return err
	}

	aggregate := sql.NullFloat64{}
	if candidate.Evaluated() {
		aggregate = sql.NullFloat64{Float64: candidate.AggregateScore(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (run_id, candidate_id, method, parent_ids, components, val_scores, aggregate, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, candidate.ID, string(candidate.Method), string(parents), string(components), string(scores),
		aggregate, candidate.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record candidate %d: %w", candidate.ID, err)
	}
	return nil
}

// CandidateRecord is one persisted row of the history.
type CandidateRecord struct {
	RunID       string
	CandidateID int
	Method      string
	ParentIDs   []int
	Components  map[string]string
	Aggregate   float64
	CreatedAt   time.Time
}

// Candidates returns the persisted candidates of a run in acceptance order.
func (s *SQLiteSink) Candidates(ctx context.Context, runID string) ([]CandidateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, candidate_id, method, parent_ids, components, aggregate, created_at
		 FROM candidates WHERE run_id = ? ORDER BY candidate_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []CandidateRecord
	for rows.Next() {
		var record CandidateRecord
		var parents, components string
		var aggregate sql.NullFloat64
		if err := rows.Scan(&record.RunID, &record.CandidateID, &record.Method, &parents, &components, &aggregate, &record.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(parents), &record.ParentIDs); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(components), &record.Components); err != nil {
			return nil, err
		}
		if aggregate.Valid {
			record.Aggregate = aggregate.Float64
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
