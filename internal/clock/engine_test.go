package clock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MeKo-Tech/reefcraft/internal/adapter"
	"github.com/MeKo-Tech/reefcraft/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEngine_ValueFollowsTimer(t *testing.T) {
	fc := &fakeClock{t: time.Unix(0, 0)}
	e := NewEngine(adapter.New(42), nil)
	e.timer = newTimerWithClock(fc.now)

	e.Start()
	fc.advance(1500 * time.Millisecond)

	tick := e.Value()
	assert.Equal(t, float32(1.5), tick.Time)
	assert.Equal(t, sampler.New(42).Evaluate(1.5), tick.Value)
}

func TestEngine_ResetReseeds(t *testing.T) {
	fc := &fakeClock{t: time.Unix(0, 0)}
	a := adapter.New(1)
	e := NewEngine(a, nil)
	e.timer = newTimerWithClock(fc.now)

	e.Start()
	fc.advance(20 * time.Second)
	e.Value()

	e.Reset(7)
	assert.Equal(t, float32(0), e.Time())
	assert.Equal(t, uint32(7), a.Snapshot().Seed)
	assert.Equal(t, float32(0), a.Snapshot().Cycle.Start)
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := NewEngine(adapter.NewDefault(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	var ticks []Tick
	err := e.Run(ctx, time.Millisecond, func(tk Tick) error {
		ticks = append(ticks, tk)
		if len(ticks) == 5 {
			cancel()
		}
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, len(ticks), 5)
	assert.True(t, e.timer.Paused())
	for i := 1; i < len(ticks); i++ {
		assert.GreaterOrEqual(t, ticks[i].Time, ticks[i-1].Time)
	}
}

func TestEngine_RunReturnsCallbackError(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := NewEngine(adapter.NewDefault(), nil)
	boom := errors.New("boom")

	err := e.Run(context.Background(), time.Millisecond, func(Tick) error { return boom })
	assert.ErrorIs(t, err, boom)
}
