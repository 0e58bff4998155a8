// Package worker provides a parallel seed sweep worker pool.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/MeKo-Tech/reefcraft/internal/sampler"
	"github.com/MeKo-Tech/reefcraft/internal/trace"
)

// Evaluator runs one sweep task. Implementations must not share a sampler
// between calls; each task owns its own cursor.
type Evaluator interface {
	Evaluate(ctx context.Context, task Task) (trace.Stats, error)
}

// Task represents a single seed to sweep over a grid.
type Task struct {
	Seed uint32
	Grid trace.Grid
}

// Result represents the outcome of a sweep task.
type Result struct {
	Task    Task
	Stats   trace.Stats
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Evaluator  Evaluator
	OnProgress ProgressFunc
}

// Pool manages parallel sweeps.
type Pool struct {
	workers    int
	evaluator  Evaluator
	onProgress ProgressFunc
}

// New creates a new worker pool. A nil evaluator defaults to SweepEvaluator.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	eval := cfg.Evaluator
	if eval == nil {
		eval = SweepEvaluator{}
	}

	return &Pool{
		workers:    workers,
		evaluator:  eval,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and returns one result per task, in completion order.
// The function blocks until all tasks complete or the context is cancelled;
// tasks not started before cancellation report ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	var (
		completed int
		failed    int
		mu        sync.Mutex
	)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		for result := range resultCh {
			results = append(results, result)

			mu.Lock()
			completed++
			if result.Err != nil {
				failed++
			}
			c, f := completed, failed
			mu.Unlock()

			if p.onProgress != nil {
				p.onProgress(c, len(tasks), f)
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

// worker processes tasks from the task channel and sends results to the result channel.
func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			results <- Result{Task: task, Err: ctx.Err()}
			continue
		default:
		}

		start := time.Now()
		stats, err := p.evaluator.Evaluate(ctx, task)
		results <- Result{
			Task:    task,
			Stats:   stats,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}

// SweepEvaluator evaluates a fresh sampler over the task grid.
type SweepEvaluator struct{}

// checkEvery is how many samples are evaluated between cancellation checks.
const checkEvery = 4096

// Evaluate implements Evaluator.
func (SweepEvaluator) Evaluate(ctx context.Context, task Task) (trace.Stats, error) {
	if err := task.Grid.Validate(); err != nil {
		return trace.Stats{}, err
	}

	s := sampler.New(task.Seed)
	n := task.Grid.Len()
	samples := make([]trace.Sample, n)
	for i := 0; i < n; i++ {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return trace.Stats{}, err
			}
		}
		t := task.Grid.At(i)
		samples[i] = trace.Sample{T: t, V: s.Evaluate(t)}
	}
	st := trace.Summarize(samples)
	st.Cycles = s.Cycles()
	return st, nil
}
