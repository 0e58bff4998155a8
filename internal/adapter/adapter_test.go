package adapter

import (
	"errors"
	"sync"
	"testing"

	"github.com/MeKo-Tech/reefcraft/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_ForwardsToSampler(t *testing.T) {
	a := NewDefault()
	s := sampler.NewDefault()

	for i := 0; i < 200; i++ {
		tm := float32(i) * 0.05
		require.Equal(t, s.Evaluate(tm), a.SimValue(tm), "t=%v", tm)
	}
}

func TestAdapter_SeedResets(t *testing.T) {
	a := New(1)
	a.SimValue(30)

	a.Seed(123)
	snap := a.Snapshot()
	assert.Equal(t, uint32(123), snap.Seed)
	assert.Equal(t, float32(0), snap.Cycle.Start)
	assert.Equal(t, uint64(1), snap.Cycles)

	assert.Equal(t, sampler.New(123).Evaluate(0.5), a.SimValue(0.5))
}

func TestAdapter_SnapshotDoesNotAdvance(t *testing.T) {
	a := New(9)
	a.SimValue(3)
	first := a.Snapshot()
	second := a.Snapshot()
	assert.Equal(t, first, second)
}

func TestAdapter_ConcurrentCallers(t *testing.T) {
	a := New(5)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				v := a.SimValue(float32(g*500+i) * 0.01)
				if v > 1 || v < -1 {
					t.Errorf("value out of range: %v", v)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Greater(t, a.Snapshot().Cycles, uint64(1))
}

func TestAdapter_SimValueWithin(t *testing.T) {
	a := NewDefault()
	ref := sampler.NewDefault()

	v, err := a.SimValueWithin(50, 100)
	require.NoError(t, err)
	assert.Equal(t, ref.Evaluate(50), v)

	before := a.Snapshot()
	_, err = a.SimValueWithin(3e38, 1e6)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooFarAhead))
	assert.Equal(t, before, a.Snapshot(), "a rejected call must not advance the sampler")

	// The limit is measured from the current cycle, so the sampler can still walk forward.
	v, err = a.SimValueWithin(140, 100)
	require.NoError(t, err)
	assert.Equal(t, ref.Evaluate(140), v)
}
