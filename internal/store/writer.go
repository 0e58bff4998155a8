package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/MeKo-Tech/reefcraft/internal/trace"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	// DefaultBatchSize is the number of samples to buffer before flushing to the database.
	DefaultBatchSize = 1000
)

type sampleEntry struct {
	RunID string
	Index int
	T     float32
	V     float32
}

// Writer appends runs and their samples to a SQLite database.
type Writer struct {
	db        *sql.DB
	path      string
	batch     []sampleEntry
	batchSize int
	now       func() time.Time
	mu        sync.Mutex
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers; busy_timeout covers readers in other processes.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Writer{
		db:        db,
		path:      path,
		batch:     make([]sampleEntry, 0, DefaultBatchSize),
		batchSize: DefaultBatchSize,
		now:       time.Now,
	}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			grid_start REAL NOT NULL,
			grid_end REAL NOT NULL,
			grid_step REAL NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS samples (
			run_id TEXT NOT NULL,
			idx INTEGER NOT NULL,
			t REAL NOT NULL,
			v REAL NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS sample_index ON samples (run_id, idx);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

const (
	insertRun    = "INSERT INTO runs (id, seed, grid_start, grid_end, grid_step, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	insertSample = "INSERT OR REPLACE INTO samples (run_id, idx, t, v) VALUES (?, ?, ?, ?)"
)

// BeginRun registers a new run and returns its id. Samples streamed with
// WriteSample land in later transactions; use WriteRun to store a run atomically.
func (w *Writer) BeginRun(seed uint32, g trace.Grid) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := uuid.NewString()
	if _, err := w.db.Exec(insertRun, w.runArgs(id, seed, g)...); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

func (w *Writer) runArgs(id string, seed uint32, g trace.Grid) []any {
	return []any{
		id, int64(seed), float64(g.Start), float64(g.End), float64(g.Step),
		w.now().UTC().Format(time.RFC3339Nano),
	}
}

// WriteSample adds a sample to the batch. When the batch is full, it is automatically flushed.
func (w *Writer) WriteSample(runID string, idx int, s trace.Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch = append(w.batch, sampleEntry{RunID: runID, Index: idx, T: s.T, V: s.V})
	if len(w.batch) >= w.batchSize {
		return w.flushLocked()
	}
	return nil
}

// WriteRun records a complete trace in a single transaction: either the run
// and all of its samples are stored or nothing is.
func (w *Writer) WriteRun(seed uint32, g trace.Grid, samples []trace.Sample) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	tx, err := w.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	id := uuid.NewString()
	if _, err := tx.Exec(insertRun, w.runArgs(id, seed, g)...); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(insertSample)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, smp := range samples {
		if _, err := stmt.Exec(id, i, float64(smp.T), float64(smp.V)); err != nil {
			return "", fmt.Errorf("failed to insert sample %s/%d: %w", id, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// Flush writes any buffered samples to the database.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// flushLocked writes buffered samples to the database. Must be called with lock held.
func (w *Writer) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare(insertSample)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range w.batch {
		if _, err := stmt.Exec(e.RunID, e.Index, float64(e.T), float64(e.V)); err != nil {
			return fmt.Errorf("failed to insert sample %s/%d: %w", e.RunID, e.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.batch = w.batch[:0]
	return nil
}

// Close flushes any remaining samples and closes the database.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
