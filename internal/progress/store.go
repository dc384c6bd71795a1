// Package progress persists evaluation attempts per scenario so a player can
// see whether resubmissions are getting better. Storage is a local SQLite
// database; one scenario is one (seed, difficulty) pair.
package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jfarrand/dimsim/internal/evaluator"
	"github.com/jfarrand/dimsim/internal/shop"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS attempts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    seed INTEGER NOT NULL,
    difficulty TEXT NOT NULL,
    schema_hash TEXT NOT NULL,
    total_score INTEGER NOT NULL,
    max_score INTEGER NOT NULL,
    percentage REAL NOT NULL,
    weighted_score REAL NOT NULL,
    axis_scores TEXT NOT NULL,  -- JSON object, axis name -> score
    violation_count INTEGER NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_attempts_scenario ON attempts(seed, difficulty);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// Attempt is one recorded evaluation.
type Attempt struct {
	ID             int64           `json:"id"`
	Seed           int64           `json:"seed"`
	Difficulty     shop.Difficulty `json:"difficulty"`
	SchemaHash     string          `json:"schema_hash"`
	TotalScore     int             `json:"total_score"`
	MaxScore       int             `json:"max_score"`
	Percentage     float64         `json:"percentage"`
	WeightedScore  float64         `json:"weighted_score"`
	AxisScores     map[string]int  `json:"axis_scores"`
	ViolationCount int             `json:"violation_count"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Outcome classifies a recorded attempt relative to the scenario's history.
type Outcome struct {
	Improvement bool `json:"is_improvement"` // better than the previous attempt
	Regression  bool `json:"is_regression"`  // worse than the previous attempt
	NewBest     bool `json:"is_new_best"`    // better than every prior attempt
	Duplicate   bool `json:"is_duplicate"`   // same schema as the previous attempt
}

// Scenario is the aggregated history for one (seed, difficulty) pair.
type Scenario struct {
	Seed           int64           `json:"seed"`
	Difficulty     shop.Difficulty `json:"difficulty"`
	BestScore      int             `json:"best_score"`
	BestPercentage float64         `json:"best_percentage"`
	AttemptCount   int             `json:"attempt_count"`
	FirstAttempt   time.Time       `json:"first_attempt"`
	LastAttempt    time.Time       `json:"last_attempt"`
	Attempts       []Attempt       `json:"attempts"`
}

// Store is a single-writer SQLite attempt store.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if needed) the progress database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("progress: creating %s: %w", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("progress: opening database: %w", err)
	}
	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("progress: initializing schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	var version sql.NullInt64
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err == nil && version.Valid {
		if int(version.Int64) < SchemaVersion {
			return migrateSchema(ctx, db, int(version.Int64))
		}
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

func migrateSchema(ctx context.Context, db *sql.DB, from int) error {
	// Only one version so far.
	_ = ctx
	_ = from
	return nil
}

// Record stores an evaluation attempt and classifies it against the
// scenario's history. Resubmitting the identical schema back to back is a
// duplicate and is not stored again.
func (s *Store) Record(ctx context.Context, seed int64, difficulty shop.Difficulty, schemaHash string, report *evaluator.Report) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out Outcome

	prev, best, err := s.scenarioState(ctx, seed, difficulty)
	if err != nil {
		return out, err
	}

	if prev != nil && prev.SchemaHash == schemaHash {
		out.Duplicate = true
		return out, nil
	}

	pct := report.Percentage()
	if prev != nil {
		out.Improvement = pct > prev.Percentage
		out.Regression = pct < prev.Percentage
	}
	out.NewBest = prev == nil || report.TotalScore > best

	axisScores := make(map[string]int, len(report.AxisScores))
	for _, a := range report.AxisScores {
		axisScores[a.Axis] = a.Score
	}
	rawAxes, err := json.Marshal(axisScores)
	if err != nil {
		return Outcome{}, fmt.Errorf("progress: marshaling axis scores: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attempts
		    (seed, difficulty, schema_hash, total_score, max_score, percentage,
		     weighted_score, axis_scores, violation_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seed, string(difficulty), schemaHash,
		report.TotalScore, report.MaxScore, pct,
		report.WeightedScore, string(rawAxes), len(report.Violations),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return Outcome{}, fmt.Errorf("progress: inserting attempt: %w", err)
	}
	return out, nil
}

// scenarioState returns the most recent attempt and the best total score.
// A nil attempt means the scenario has no history.
func (s *Store) scenarioState(ctx context.Context, seed int64, difficulty shop.Difficulty) (*Attempt, int, error) {
	var best sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(total_score) FROM attempts WHERE seed = ? AND difficulty = ?`,
		seed, string(difficulty)).Scan(&best)
	if err != nil {
		return nil, 0, fmt.Errorf("progress: querying best score: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, difficulty, schema_hash, total_score, max_score,
		       percentage, weighted_score, axis_scores, violation_count, created_at
		FROM attempts WHERE seed = ? AND difficulty = ?
		ORDER BY id DESC LIMIT 1`,
		seed, string(difficulty))
	if err != nil {
		return nil, 0, fmt.Errorf("progress: querying latest attempt: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, 0, rows.Err()
	}
	a, err := scanAttempt(rows)
	if err != nil {
		return nil, 0, err
	}
	return a, int(best.Int64), rows.Err()
}

// Get returns the full history for a scenario, oldest attempt first, or nil
// when the scenario has never been attempted.
func (s *Store) Get(ctx context.Context, seed int64, difficulty shop.Difficulty) (*Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, difficulty, schema_hash, total_score, max_score,
		       percentage, weighted_score, axis_scores, violation_count, created_at
		FROM attempts WHERE seed = ? AND difficulty = ?
		ORDER BY id ASC`,
		seed, string(difficulty))
	if err != nil {
		return nil, fmt.Errorf("progress: querying attempts: %w", err)
	}
	defer rows.Close()

	sc := &Scenario{Seed: seed, Difficulty: difficulty}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		sc.Attempts = append(sc.Attempts, *a)
		if sc.AttemptCount == 0 || a.TotalScore > sc.BestScore {
			sc.BestScore = a.TotalScore
			sc.BestPercentage = a.Percentage
		}
		if sc.AttemptCount == 0 {
			sc.FirstAttempt = a.CreatedAt
		}
		sc.LastAttempt = a.CreatedAt
		sc.AttemptCount++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("progress: reading attempts: %w", err)
	}
	if sc.AttemptCount == 0 {
		return nil, nil
	}
	return sc, nil
}

// List summarizes every attempted scenario, most recently played first.
func (s *Store) List(ctx context.Context) ([]Scenario, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT seed, difficulty, MAX(total_score), COUNT(*),
		       MIN(created_at), MAX(created_at)
		FROM attempts
		GROUP BY seed, difficulty
		ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("progress: listing scenarios: %w", err)
	}
	defer rows.Close()

	var out []Scenario
	for rows.Next() {
		var sc Scenario
		var difficulty, first, last string
		if err := rows.Scan(&sc.Seed, &difficulty, &sc.BestScore, &sc.AttemptCount, &first, &last); err != nil {
			return nil, fmt.Errorf("progress: scanning scenario: %w", err)
		}
		sc.Difficulty = shop.Difficulty(difficulty)
		if sc.FirstAttempt, err = time.Parse(time.RFC3339, first); err != nil {
			return nil, fmt.Errorf("progress: parsing first attempt time: %w", err)
		}
		if sc.LastAttempt, err = time.Parse(time.RFC3339, last); err != nil {
			return nil, fmt.Errorf("progress: parsing last attempt time: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("progress: reading scenarios: %w", err)
	}
	return out, nil
}

func scanAttempt(rows *sql.Rows) (*Attempt, error) {
	var a Attempt
	var difficulty, rawAxes, createdAt string
	if err := rows.Scan(&a.ID, &a.Seed, &difficulty, &a.SchemaHash,
		&a.TotalScore, &a.MaxScore, &a.Percentage, &a.WeightedScore,
		&rawAxes, &a.ViolationCount, &createdAt); err != nil {
		return nil, fmt.Errorf("progress: scanning attempt: %w", err)
	}
	a.Difficulty = shop.Difficulty(difficulty)
	if err := json.Unmarshal([]byte(rawAxes), &a.AxisScores); err != nil {
		return nil, fmt.Errorf("progress: parsing axis scores: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("progress: parsing attempt time: %w", err)
	}
	a.CreatedAt = ts
	return &a, nil
}
