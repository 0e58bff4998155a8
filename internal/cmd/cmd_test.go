package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/reefcraft/internal/sampler"
	"github.com/MeKo-Tech/reefcraft/internal/store"
	"github.com/MeKo-Tech/reefcraft/internal/trace"
	"github.com/MeKo-Tech/reefcraft/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSampleCommand_CSV(t *testing.T) {
	out, err := execute(t, "sample", "--seed", "7", "--start", "0", "--end", "2", "--step", "0.5", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "t,value", lines[0])

	var buf bytes.Buffer
	require.NoError(t, trace.WriteCSV(&buf, trace.RunSeed(7, trace.Grid{Start: 0, End: 2, Step: 0.5})))
	assert.Equal(t, buf.String(), out)
}

func TestSampleCommand_InvalidFormat(t *testing.T) {
	_, err := execute(t, "sample", "--format", "xml")
	assert.Error(t, err)
}

func TestRecordAndVerify(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, "record", "--db", db, "--seed", "123", "--end", "5", "--step", "0.25")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	_, err = execute(t, "verify", "--db", db, id)
	require.NoError(t, err)
}

func TestRecordingEvaluator(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sweep.db")
	w, err := store.New(db)
	require.NoError(t, err)

	g := trace.Grid{Start: 0, End: 3, Step: 0.1}
	st, err := recordingEvaluator{w: w}.Evaluate(context.Background(), worker.Task{Seed: 456, Grid: g})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	want, err := worker.SweepEvaluator{}.Evaluate(context.Background(), worker.Task{Seed: 456, Grid: g})
	require.NoError(t, err)
	assert.Equal(t, want, st)

	r, err := store.OpenReader(db)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	runs, err := r.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, uint32(456), runs[0].Seed)
	assert.Equal(t, g.Len(), runs[0].Samples)

	reports, err := store.Verify(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].OK())
}

func TestRecordingEvaluator_Cancelled(t *testing.T) {
	w, err := store.New(filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = recordingEvaluator{w: w}.Evaluate(ctx, worker.Task{Seed: sampler.DefaultSeed, Grid: trace.Grid{End: 1, Step: 0.1}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecordingEvaluator_ParallelSweep(t *testing.T) {
	db := filepath.Join(t.TempDir(), "parallel.db")
	w, err := store.New(db)
	require.NoError(t, err)

	g := trace.Grid{Start: 0, End: 2, Step: 0.05}
	tasks := make([]worker.Task, 0, 200)
	for seed := uint32(1); seed <= 200; seed++ {
		tasks = append(tasks, worker.Task{Seed: seed, Grid: g})
	}

	pool := worker.New(worker.Config{Workers: 8, Evaluator: recordingEvaluator{w: w}})
	results := pool.Run(context.Background(), tasks)
	require.Len(t, results, len(tasks))
	for _, r := range results {
		require.NoError(t, r.Err, "seed %d", r.Task.Seed)
	}
	require.NoError(t, w.Close())

	r, err := store.OpenReader(db)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	reports, err := store.Verify(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, reports, len(tasks))
	for _, rep := range reports {
		assert.True(t, rep.OK(), "seed %d", rep.Run.Seed)
	}
}
