// Package adapter owns the single sampler a host environment talks to and
// forwards the two exposed operations to it.
package adapter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MeKo-Tech/reefcraft/internal/sampler"
)

// Adapter serializes access to one sampler so it can be shared by request
// handlers or a js event loop.
type Adapter struct {
	mu      sync.Mutex
	sampler *sampler.Sampler
	seed    uint32
}

// New creates an adapter around a sampler seeded with seed.
func New(seed uint32, opts ...sampler.Option) *Adapter {
	return &Adapter{
		sampler: sampler.New(seed, opts...),
		seed:    seed,
	}
}

// NewDefault creates an adapter with sampler.DefaultSeed.
func NewDefault() *Adapter {
	return New(sampler.DefaultSeed)
}

// Seed reseeds the sampler and restarts its cycle at time 0.
func (a *Adapter) Seed(seed uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sampler.Seed(seed)
	a.seed = seed
}

// SimValue evaluates the sampler at t.
func (a *Adapter) SimValue(t float32) float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sampler.Evaluate(t)
}

// ErrTooFarAhead is returned by SimValueWithin when t would force too many
// cycle draws while holding the lock.
var ErrTooFarAhead = errors.New("time too far past the current cycle")

// SimValueWithin evaluates the sampler at t unless t lies more than maxAdvance
// past the start of the current cycle. The check and the evaluation happen
// under one lock, so concurrent callers cannot slip a long catch-up through.
func (a *Adapter) SimValueWithin(t, maxAdvance float32) (float32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if c := a.sampler.Cycle(); t-c.Start > maxAdvance {
		return 0, fmt.Errorf("%w: t=%g, cycle start %g, limit %g", ErrTooFarAhead, t, c.Start, maxAdvance)
	}
	return a.sampler.Evaluate(t), nil
}

// Snapshot describes the sampler state without advancing it.
type Snapshot struct {
	Seed   uint32        `json:"seed"`
	Cycle  sampler.Cycle `json:"cycle"`
	Cycles uint64        `json:"cycles"`
}

// Snapshot returns the last seed and the current cycle.
func (a *Adapter) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Seed:   a.seed,
		Cycle:  a.sampler.Cycle(),
		Cycles: a.sampler.Cycles(),
	}
}
