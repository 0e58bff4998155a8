package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/reefcraft/internal/trace"
)

// ErrRunNotFound is returned when a run id is not in the database.
var ErrRunNotFound = errors.New("run not found")

// Reader reads recorded runs.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens a recorded database read-only.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='runs'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain runs table")
	}

	return &Reader{db: db, path: path}, nil
}

const runColumns = `r.id, r.seed, r.grid_start, r.grid_end, r.grid_step, r.created_at,
	(SELECT COUNT(*) FROM samples s WHERE s.run_id = r.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run              Run
		seed             int64
		start, end, step float64
		created          string
	)
	if err := row.Scan(&run.ID, &seed, &start, &end, &step, &created, &run.Samples); err != nil {
		return Run{}, err
	}
	run.Seed = uint32(seed)
	run.Grid = trace.Grid{Start: float32(start), End: float32(end), Step: float32(step)}

	ts, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("invalid created_at %q: %w", created, err)
	}
	run.CreatedAt = ts
	return run, nil
}

// Runs lists all runs, oldest first.
func (r *Reader) Runs() ([]Run, error) {
	rows, err := r.db.Query("SELECT " + runColumns + " FROM runs r ORDER BY r.created_at, r.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Run returns a single run.
func (r *Reader) Run(id string) (Run, error) {
	run, err := scanRun(r.db.QueryRow("SELECT "+runColumns+" FROM runs r WHERE r.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// Samples returns the samples of a run in index order.
func (r *Reader) Samples(id string) ([]trace.Sample, error) {
	rows, err := r.db.Query("SELECT t, v FROM samples WHERE run_id = ? ORDER BY idx", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []trace.Sample
	for rows.Next() {
		var t, v float64
		if err := rows.Scan(&t, &v); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		out = append(out, trace.Sample{T: float32(t), V: float32(v)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate samples: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}
