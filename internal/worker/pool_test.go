package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/reefcraft/internal/trace"
	"go.uber.org/goleak"
)

var testGrid = trace.Grid{Start: 0, End: 2, Step: 0.01}

// mockEvaluator simulates sweeps for testing
type mockEvaluator struct {
	delay     time.Duration
	failSeeds map[uint32]bool
	callCount atomic.Int32
}

func (m *mockEvaluator) Evaluate(ctx context.Context, task Task) (trace.Stats, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return trace.Stats{}, ctx.Err()
	case <-time.After(m.delay):
	}

	if m.failSeeds[task.Seed] {
		return trace.Stats{}, errors.New("simulated failure")
	}
	return trace.Stats{Count: task.Grid.Len()}, nil
}

func seedTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Seed: uint32(i + 1), Grid: testGrid}
	}
	return tasks
}

func TestPool_BasicExecution(t *testing.T) {
	defer goleak.VerifyNone(t)

	eval := &mockEvaluator{delay: 10 * time.Millisecond}
	pool := New(Config{Workers: 2, Evaluator: eval})

	tasks := seedTasks(3)
	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("Unexpected error for seed %d: %v", r.Task.Seed, r.Err)
		}
		if r.Stats.Count != testGrid.Len() {
			t.Errorf("Expected %d samples for seed %d, got %d", testGrid.Len(), r.Task.Seed, r.Stats.Count)
		}
	}
	if eval.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d evaluator calls, got %d", len(tasks), eval.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	eval := &mockEvaluator{delay: 50 * time.Millisecond}
	pool := New(Config{Workers: 4, Evaluator: eval})

	tasks := seedTasks(8)
	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	// 4 workers and 8 tasks at 50ms each take ~100ms (2 batches).
	if elapsed > 300*time.Millisecond {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}
	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	eval := &mockEvaluator{
		delay:     5 * time.Millisecond,
		failSeeds: map[uint32]bool{2: true},
	}
	pool := New(Config{Workers: 2, Evaluator: eval})

	results := pool.Run(context.Background(), seedTasks(3))
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	var failCount int
	for _, r := range results {
		if r.Err != nil {
			failCount++
			if r.Task.Seed != 2 {
				t.Errorf("Unexpected failure for seed %d", r.Task.Seed)
			}
		}
	}
	if failCount != 1 {
		t.Errorf("Expected 1 failure, got %d", failCount)
	}
}

func TestPool_Cancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	eval := &mockEvaluator{delay: 100 * time.Millisecond}
	pool := New(Config{Workers: 2, Evaluator: eval})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, seedTasks(10))
	elapsed := time.Since(start)

	if elapsed > 300*time.Millisecond {
		t.Errorf("Expected early cancellation, took %v", elapsed)
	}
	if len(results) != 10 {
		t.Errorf("Expected a result for every task, got %d", len(results))
	}

	var cancelled int
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled != 10 {
		t.Errorf("Expected all 10 tasks cancelled, got %d", cancelled)
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	eval := &mockEvaluator{delay: 5 * time.Millisecond}

	var progressCalls atomic.Int32
	var lastCompleted, lastTotal int

	pool := New(Config{
		Workers:   2,
		Evaluator: eval,
		OnProgress: func(completed, total, failed int) {
			progressCalls.Add(1)
			lastCompleted = completed
			lastTotal = total
		},
	})

	tasks := seedTasks(3)
	pool.Run(context.Background(), tasks)

	if progressCalls.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d progress callbacks, got %d", len(tasks), progressCalls.Load())
	}
	if lastCompleted != len(tasks) || lastTotal != len(tasks) {
		t.Errorf("Expected final progress %d/%d, got %d/%d", len(tasks), len(tasks), lastCompleted, lastTotal)
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	eval := &mockEvaluator{}
	pool := New(Config{Workers: 2, Evaluator: eval})

	if results := pool.Run(context.Background(), nil); len(results) != 0 {
		t.Errorf("Expected 0 results for empty tasks, got %d", len(results))
	}
	if eval.callCount.Load() != 0 {
		t.Errorf("Expected 0 evaluator calls for empty tasks, got %d", eval.callCount.Load())
	}
}

func TestSweepEvaluator(t *testing.T) {
	pool := New(Config{Workers: 3})
	results := pool.Run(context.Background(), seedTasks(6))

	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("seed %d failed: %v", r.Task.Seed, r.Err)
		}
		st := r.Stats
		if st.Count != testGrid.Len() || st.NonFinite != 0 {
			t.Errorf("seed %d: unexpected stats %+v", r.Task.Seed, st)
		}
		if st.Max > 1 || st.Min < -1 {
			t.Errorf("seed %d: values out of range [%v, %v]", r.Task.Seed, st.Min, st.Max)
		}
		if st.Cycles < 2 {
			t.Errorf("seed %d: expected at least 2 cycles over 2s, got %d", r.Task.Seed, st.Cycles)
		}
	}
}

func TestSweepEvaluator_MatchesTrace(t *testing.T) {
	st, err := SweepEvaluator{}.Evaluate(context.Background(), Task{Seed: 99, Grid: testGrid})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	want := trace.Summarize(trace.RunSeed(99, testGrid))
	want.Cycles = st.Cycles
	if st != want {
		t.Errorf("stats = %+v, want %+v", st, want)
	}
}

func TestSweepEvaluator_InvalidGrid(t *testing.T) {
	_, err := SweepEvaluator{}.Evaluate(context.Background(), Task{Seed: 1, Grid: trace.Grid{Start: 1, End: 0, Step: 1}})
	if err == nil {
		t.Error("Expected error for reversed grid")
	}
}

func TestSweepEvaluator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SweepEvaluator{}.Evaluate(ctx, Task{Seed: 1, Grid: testGrid})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
