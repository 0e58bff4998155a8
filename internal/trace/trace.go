// Package trace evaluates a sampler over a regular time grid.
package trace

import (
	"errors"
	"fmt"
	"math"

	"github.com/MeKo-Tech/reefcraft/internal/sampler"
)

// MaxSamples caps a single grid so a typo in --step cannot exhaust memory.
const MaxSamples = 10_000_000

// Grid is the closed time range [Start, End] walked in Step increments.
type Grid struct {
	Start float32 `json:"start"`
	End   float32 `json:"end"`
	Step  float32 `json:"step"`
}

// Sample is one evaluated point.
type Sample struct {
	T float32 `json:"t"`
	V float32 `json:"v"`
}

// Validate checks that the grid is finite, ordered and not too dense.
func (g Grid) Validate() error {
	fields := []struct {
		name string
		v    float32
	}{{"start", g.Start}, {"end", g.End}, {"step", g.Step}}
	for _, f := range fields {
		if math.IsNaN(float64(f.v)) || math.IsInf(float64(f.v), 0) {
			return fmt.Errorf("%s must be finite", f.name)
		}
	}
	if g.Step <= 0 {
		return errors.New("step must be positive")
	}
	if g.End < g.Start {
		return fmt.Errorf("end (%g) must be >= start (%g)", g.End, g.Start)
	}
	if g.Len() > MaxSamples {
		return fmt.Errorf("grid has %d samples, limit is %d", g.Len(), MaxSamples)
	}
	return nil
}

// Len returns the number of grid points. Call Validate first.
func (g Grid) Len() int {
	if g.Step <= 0 || g.End < g.Start {
		return 0
	}
	n := math.Floor(float64(g.End-g.Start)/float64(g.Step)+1e-6) + 1
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// At returns the i-th grid time. Times are computed from the index so long
// grids do not accumulate rounding drift. The product is rounded before the
// add so the result does not depend on FMA fusion.
func (g Grid) At(i int) float32 {
	return g.Start + float32(float32(i)*g.Step)
}

// Run evaluates s at every grid point in order.
func Run(s *sampler.Sampler, g Grid) []Sample {
	n := g.Len()
	out := make([]Sample, n)
	for i := 0; i < n; i++ {
		t := g.At(i)
		out[i] = Sample{T: t, V: s.Evaluate(t)}
	}
	return out
}

// RunSeed evaluates a fresh sampler seeded with seed.
func RunSeed(seed uint32, g Grid) []Sample {
	return Run(sampler.New(seed), g)
}
