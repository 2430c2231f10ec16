package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a small sqlite index of completed cycles, one row per
// persisted file. It lets a project directory full of CSVs stay
// queryable without reparsing them.
type Store struct {
	db *sql.DB
}

// Result is one completed cycle's index entry. Peak fields are zero
// when no peak was detected.
type Result struct {
	RunID      string
	Kind       string
	Cycle      int
	File       string
	Samples    int
	PeakV      float64
	PeakI      float64
	PeakHeight float64
	HasPeak    bool
	CreatedAt  time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	cycle       INTEGER NOT NULL,
	file        TEXT NOT NULL,
	samples     INTEGER NOT NULL,
	peak_v      REAL,
	peak_i      REAL,
	peak_height REAL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
`

// OpenStore opens (creating if needed) the sqlite result index at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open result index %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create results schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one completed cycle into the index.
func (s *Store) Record(r Result) error {
	var peakV, peakI, peakHeight interface{}
	if r.HasPeak {
		peakV, peakI, peakHeight = r.PeakV, r.PeakI, r.PeakHeight
	}
	_, err := s.db.Exec(
		`INSERT INTO results (run_id, kind, cycle, file, samples, peak_v, peak_i, peak_height, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Kind, r.Cycle, r.File, r.Samples, peakV, peakI, peakHeight, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// ByRun returns all index entries for one run, in cycle order.
func (s *Store) ByRun(runID string) ([]Result, error) {
	rows, err := s.db.Query(
		`SELECT run_id, kind, cycle, file, samples, peak_v, peak_i, peak_height, created_at
		 FROM results WHERE run_id = ? ORDER BY cycle`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var peakV, peakI, peakHeight sql.NullFloat64
		if err := rows.Scan(&r.RunID, &r.Kind, &r.Cycle, &r.File, &r.Samples,
			&peakV, &peakI, &peakHeight, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if peakV.Valid {
			r.HasPeak = true
			r.PeakV, r.PeakI, r.PeakHeight = peakV.Float64, peakI.Float64, peakHeight.Float64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
