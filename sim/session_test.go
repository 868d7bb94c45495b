package sim

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facmaker/facmaker/sim/trace"
)

func TestSession_EditMarksStale_RegenerateRefreshes(t *testing.T) {
	// GIVEN a session over the press factory
	s, err := NewSession(context.Background(), pressFactory(t), CacheConfig{Horizon: 5})
	require.NoError(t, err)
	first := s.Cache()
	assert.False(t, s.Stale())

	// WHEN Ore becomes an internal item with a finite stock
	require.NoError(t, s.Edit(func(f *Factory) error {
		if err := f.SetItemRole(1, RoleInternal); err != nil {
			return err
		}
		return f.SetStartingQuantity(1, 1)
	}))

	// THEN the published cache is untouched until regeneration
	assert.True(t, s.Stale())
	assert.Same(t, first, s.Cache())

	require.NoError(t, s.Regenerate(context.Background()))
	assert.False(t, s.Stale())
	assert.Equal(t, []int64{0, 0, 1, 1, 1, 1}, seriesValues(t, s.Cache(), 2))
	assert.Equal(t, []int64{0, 0, 1, 1, 2, 2}, seriesValues(t, first, 2))
}

func TestSession_FailedEdit_NotStale(t *testing.T) {
	s, err := NewSession(context.Background(), pressFactory(t), CacheConfig{Horizon: 5})
	require.NoError(t, err)

	err = s.Edit(func(f *Factory) error { return f.RemoveItem(1) })
	assert.True(t, errors.Is(err, ErrItemInUse))
	assert.False(t, s.Stale())
}

func TestSession_RegenerateCancelled_KeepsPreviousCache(t *testing.T) {
	s, err := NewSession(context.Background(), pressFactory(t), CacheConfig{Horizon: 5})
	require.NoError(t, err)
	prev := s.Cache()
	require.NoError(t, s.SetHorizon(50))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Regenerate(ctx))
	assert.Same(t, prev, s.Cache())
	assert.True(t, s.Stale())
}

func TestSession_SetHorizonAndTrace(t *testing.T) {
	s, err := NewSession(context.Background(), pressFactory(t), CacheConfig{Horizon: 5})
	require.NoError(t, err)

	assert.True(t, errors.Is(s.SetHorizon(-3), ErrInvalidHorizon))
	require.NoError(t, s.SetHorizon(8))
	s.SetTrace(trace.TraceConfig{Level: trace.TraceLevelOperations})
	require.NoError(t, s.Regenerate(context.Background()))

	c := s.Cache()
	assert.Equal(t, int64(8), c.TicksSimulated())
	require.NotNil(t, c.Trace())
	assert.Len(t, c.Trace().Dispatches, 4)
}

func TestSession_ConcurrentReaders(t *testing.T) {
	// GIVEN readers polling while the horizon is regenerated repeatedly
	s, err := NewSession(context.Background(), pressFactory(t), CacheConfig{Horizon: 10})
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				c := s.Cache()
				plate, _ := c.Series(2)
				// THEN every observed cache is complete
				if int64(plate.Len()) != c.TicksSimulated()+1 {
					t.Errorf("torn cache: %d entries for %d ticks", plate.Len(), c.TicksSimulated())
					return
				}
			}
		}()
	}
	for h := int64(11); h < 40; h++ {
		require.NoError(t, s.SetHorizon(h))
		require.NoError(t, s.Regenerate(context.Background()))
	}
	close(stop)
	wg.Wait()
}
