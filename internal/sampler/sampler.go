// Package sampler generates a deterministic, bounded, cycle-based noise waveform.
//
// Time is split into consecutive cycles of random length. Each cycle draws a
// period in [0.5, 1.5] and an amplitude in [0.1, 1.0] and traces one full sine
// oscillation whose phase restarts at zero. Every cycle boundary is therefore a
// zero crossing: amplitude and period changes never introduce a jump, only a
// change of slope. The whole output sequence is a pure function of the seed and
// of the sequence of evaluated times.
package sampler

import (
	"math"

	"github.com/MeKo-Tech/reefcraft/internal/rng"
)

// DefaultSeed is the seed used by NewDefault. Default-seeded samplers all
// reproduce the same sequence.
const DefaultSeed uint32 = 12345

const twoPi = 2 * float32(math.Pi)

// Cycle describes the cycle the sampler is currently in.
type Cycle struct {
	Start     float32 `json:"start"`
	Period    float32 `json:"period"`
	Amplitude float32 `json:"amplitude"`
}

// End returns the time at which the cycle is over.
func (c Cycle) End() float32 { return c.Start + c.Period }

// Option configures a Sampler at construction time.
type Option func(*Sampler)

// WithSource replaces the default MT19937 engine. The source is seeded by New
// and by every Seed call.
func WithSource(src rng.Source) Option {
	return func(s *Sampler) {
		if src != nil {
			s.src = src
		}
	}
}

// Sampler is a single mutable cursor over time. It is not safe for concurrent
// use; share it behind a lock or give each stream its own instance.
type Sampler struct {
	src rng.Source

	start     float32
	period    float32
	amplitude float32

	cycles uint64
}

// New creates a sampler seeded with seed and draws its first cycle at time 0.
func New(seed uint32, opts ...Option) *Sampler {
	s := &Sampler{}
	for _, opt := range opts {
		opt(s)
	}
	if s.src == nil {
		s.src = rng.NewMT19937(seed)
	}
	s.Seed(seed)
	return s
}

// NewDefault creates a sampler seeded with DefaultSeed.
func NewDefault(opts ...Option) *Sampler {
	return New(DefaultSeed, opts...)
}

// Seed reseeds the engine, resets the cycle start to 0 and redraws the first
// cycle. It is equivalent to constructing a new sampler with the same source.
func (s *Sampler) Seed(seed uint32) {
	s.src.Seed(seed)
	s.start = 0
	s.cycles = 0
	s.draw()
}

// Evaluate returns the waveform value at t, in [-amplitude, +amplitude].
//
// Times are expected to be non-decreasing. Evaluate never retracts a cycle, so
// a t earlier than the current cycle start is evaluated against the current
// cycle; the result stays bounded but is not part of the reproducible sequence.
//
// Advancing past the current cycle draws every skipped cycle in order, which
// costs at most one iteration per 0.5 time units elapsed. Large forward jumps
// are therefore linear in the jump size. Once float32 precision can no longer
// advance the cycle start, the sampler rebases the cycle at t instead of
// looping forever.
//
// NaN and infinite times return 0 and leave the state untouched.
func (s *Sampler) Evaluate(t float32) float32 {
	if !isFinite(t) {
		return 0
	}

	for t >= s.start+s.period {
		next := s.start + s.period
		if next == s.start {
			s.start = t
			s.draw()
			break
		}
		s.start = next
		s.draw()
	}

	theta := twoPi * (t - s.start) / s.period
	return s.amplitude * float32(math.Sin(float64(theta)))
}

// SimValue is an alias of Evaluate matching the exported binding name.
func (s *Sampler) SimValue(t float32) float32 { return s.Evaluate(t) }

// Cycle returns the current cycle.
func (s *Sampler) Cycle() Cycle {
	return Cycle{Start: s.start, Period: s.period, Amplitude: s.amplitude}
}

// Cycles returns the number of cycles started since the last seed, including
// the initial one.
func (s *Sampler) Cycles() uint64 { return s.cycles }

// draw starts a new cycle. Period is always drawn before amplitude.
func (s *Sampler) draw() {
	s.period = rng.PeriodDist.Draw(s.src)
	s.amplitude = rng.AmplitudeDist.Draw(s.src)
	s.cycles++
}

func isFinite(t float32) bool {
	f := float64(t)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
