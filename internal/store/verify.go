package store

import (
	"context"
	"fmt"
	"runtime"

	"github.com/MeKo-Tech/reefcraft/internal/sampler"
	"golang.org/x/sync/errgroup"
)

// Verify replays each run with a fresh sampler and compares every stored
// sample bit for bit. With no ids, all runs are verified. Reports are returned
// in the order of ids (or of Runs).
func Verify(ctx context.Context, r *Reader, ids ...string) ([]Report, error) {
	var runs []Run
	if len(ids) == 0 {
		all, err := r.Runs()
		if err != nil {
			return nil, err
		}
		runs = all
	} else {
		for _, id := range ids {
			run, err := r.Run(id)
			if err != nil {
				return nil, err
			}
			runs = append(runs, run)
		}
	}

	reports := make([]Report, len(runs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, run := range runs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := verifyRun(r, run)
			if err != nil {
				return fmt.Errorf("run %s: %w", run.ID, err)
			}
			reports[i] = rep
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func verifyRun(r *Reader, run Run) (Report, error) {
	samples, err := r.Samples(run.ID)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Run: run}
	s := sampler.New(run.Seed)
	for i, stored := range samples {
		got := s.Evaluate(stored.T)
		rep.Checked++
		if got != stored.V {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Index: i, T: stored.T, Stored: stored.V, Got: got})
		}
	}
	return rep, nil
}
