package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/reefcraft/internal/sampler"
	"github.com/MeKo-Tech/reefcraft/internal/store"
	"github.com/MeKo-Tech/reefcraft/internal/trace"
	"github.com/MeKo-Tech/reefcraft/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaluate many seeds in parallel and summarize them",
	Long: `Sweep a list of seeds over the same time grid, one sampler per seed, and
report per-seed statistics. With --db every trace is also recorded.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().String("seeds", "1-64", "Seeds to sweep, e.g. \"1-100\" or \"3,7,11\"")
	addGridFlags(sweepCmd)
	sweepCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	sweepCmd.Flags().Bool("progress", true, "Show progress bar")
	sweepCmd.Flags().String("db", "", "Record every trace in this SQLite database")
	sweepCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some seeds fail")

	mustBind(sweepCmd, "sweep", "seeds", "start", "end", "step", "workers", "progress", "db", "allow-failures")
}

func runSweep(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	seeds, err := parseSeeds(viper.GetString("sweep.seeds"))
	if err != nil {
		return err
	}
	g, err := readGrid("sweep")
	if err != nil {
		return err
	}
	workers := viper.GetInt("sweep.workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	showProgress := viper.GetBool("sweep.progress")
	dbPath := viper.GetString("sweep.db")

	var eval worker.Evaluator = worker.SweepEvaluator{}
	if dbPath != "" {
		w, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer func() {
			if err := w.Close(); err != nil {
				logger.Error("Failed to close store", "error", err)
			}
		}()
		eval = recordingEvaluator{w: w}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tasks := make([]worker.Task, 0, len(seeds))
	for _, seed := range seeds {
		tasks = append(tasks, worker.Task{Seed: seed, Grid: g})
	}

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Evaluator:  eval,
		OnProgress: progress.Callback(),
	})

	logger.Info("Starting sweep", "seeds", len(tasks), "samples_per_seed", g.Len(), "workers", workers)
	results := pool.Run(ctx, tasks)
	progress.Done()

	var failed int
	for _, r := range results {
		progress.Record(r)
		if r.Err != nil {
			failed++
			logger.Error("Seed failed", "seed", r.Task.Seed, "error", r.Err)
			continue
		}
		logger.Debug("Seed swept",
			"seed", r.Task.Seed,
			"min", r.Stats.Min,
			"max", r.Stats.Max,
			"mean_abs", r.Stats.MeanAbs,
			"crossings", r.Stats.Crossings,
			"cycles", r.Stats.Cycles,
			"elapsed", r.Elapsed,
		)
	}

	logger.Info(progress.Summary())

	if failed > 0 && !viper.GetBool("sweep.allow_failures") {
		return fmt.Errorf("%d seeds failed", failed)
	}
	return nil
}

// recordingEvaluator sweeps a seed and stores its full trace.
type recordingEvaluator struct {
	w *store.Writer
}

func (e recordingEvaluator) Evaluate(ctx context.Context, task worker.Task) (trace.Stats, error) {
	if err := task.Grid.Validate(); err != nil {
		return trace.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return trace.Stats{}, err
	}

	s := sampler.New(task.Seed)
	samples := trace.Run(s, task.Grid)
	st := trace.Summarize(samples)
	st.Cycles = s.Cycles()

	if _, err := e.w.WriteRun(task.Seed, task.Grid, samples); err != nil {
		return st, fmt.Errorf("failed to record seed %d: %w", task.Seed, err)
	}
	return st, nil
}
