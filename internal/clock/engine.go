package clock

import (
	"context"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/reefcraft/internal/adapter"
)

// Tick is one live reading.
type Tick struct {
	Time  float32
	Value float32
}

// Engine samples an adapter at the current timer time.
type Engine struct {
	timer   *Timer
	adapter *adapter.Adapter
	logger  *slog.Logger
}

// NewEngine creates an engine with a paused timer.
func NewEngine(a *adapter.Adapter, logger *slog.Logger) *Engine {
	return &Engine{
		timer:   NewTimer(),
		adapter: a,
		logger:  logger,
	}
}

// Start starts or resumes the timer.
func (e *Engine) Start() { e.timer.Start() }

// Pause pauses the timer.
func (e *Engine) Pause() { e.timer.Pause() }

// Reset rewinds the timer to zero and pauses it. The sampler is reseeded with
// seed because it cannot be evaluated backwards.
func (e *Engine) Reset(seed uint32) {
	e.timer.Reset()
	e.adapter.Seed(seed)
	e.log().Debug("engine reset", "seed", seed)
}

// Time returns the simulation time in seconds.
func (e *Engine) Time() float32 {
	return float32(e.timer.Elapsed().Seconds())
}

// Value samples the waveform at the current simulation time.
func (e *Engine) Value() Tick {
	t := e.Time()
	return Tick{Time: t, Value: e.adapter.SimValue(t)}
}

// Run starts the timer and calls fn with a reading every interval until ctx is
// done. It returns ctx.Err() on cancellation or the first error from fn.
func (e *Engine) Run(ctx context.Context, interval time.Duration, fn func(Tick) error) error {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	e.Start()
	defer e.Pause()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := fn(e.Value()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}
