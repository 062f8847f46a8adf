package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/interfaces"
)

func newTestCache(t *testing.T, ttls map[interfaces.ComputationKind]time.Duration) *ResultCache {
	t.Helper()
	store := NewMemoryStore(100, time.Minute)
	c := New(store, ttls, common.NewSilentLogger())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetOrComputeCachesValue(t *testing.T) {
	c := newTestCache(t, map[interfaces.ComputationKind]time.Duration{
		interfaces.KindIndicators: time.Minute,
	})
	key := interfaces.NewCacheKey("AAPL", interfaces.KindIndicators, time.Now())

	var calls int32
	compute := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute(context.Background(), key, compute)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSingleFlight(t *testing.T) {
	c := newTestCache(t, map[interfaces.ComputationKind]time.Duration{
		interfaces.KindRiskProfile: time.Minute,
	})
	key := interfaces.NewCacheKey("MSFT", interfaces.KindRiskProfile, time.Now())

	var calls int32
	release := make(chan struct{})
	compute := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "profile", nil
	}

	const callers = 16
	results := make([]interface{}, callers)
	errs := make([]error, callers)

	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			started.Done()
			defer done.Done()
			results[i], errs[i] = c.GetOrCompute(context.Background(), key, compute)
		}(i)
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond) // let all callers join the flight
	close(release)
	done.Wait()

	// Exactly one underlying computation, all callers observe its result.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "profile", results[i])
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	c := newTestCache(t, nil)
	key := interfaces.NewCacheKey("FAIL", interfaces.KindQuote, time.Now())

	boom := errors.New("boom")
	var calls int32
	failing := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}

	_, err := c.GetOrCompute(context.Background(), key, failing)
	assert.ErrorIs(t, err, boom)

	_, err = c.GetOrCompute(context.Background(), key, failing)
	assert.ErrorIs(t, err, boom)

	// Each call recomputed: failures must not be memoized.
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDistinctKeysDoNotCollide(t *testing.T) {
	c := newTestCache(t, nil)
	now := time.Now()

	// Same subject and date, different kinds.
	indicatorKey := interfaces.NewCacheKey("AAPL", interfaces.KindIndicators, now)
	riskKey := interfaces.NewCacheKey("AAPL", interfaces.KindRiskProfile, now)

	v1, err := c.GetOrCompute(context.Background(), indicatorKey, func(context.Context) (interface{}, error) {
		return "indicators", nil
	})
	require.NoError(t, err)
	v2, err := c.GetOrCompute(context.Background(), riskKey, func(context.Context) (interface{}, error) {
		return "risk", nil
	})
	require.NoError(t, err)

	assert.Equal(t, "indicators", v1)
	assert.Equal(t, "risk", v2)
}

func TestTTLExpiry(t *testing.T) {
	c := newTestCache(t, map[interfaces.ComputationKind]time.Duration{
		interfaces.KindQuote: 20 * time.Millisecond,
	})
	key := interfaces.NewCacheKey("TSLA", interfaces.KindQuote, time.Now())

	var calls int32
	compute := func(context.Context) (interface{}, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	v, err := c.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	time.Sleep(40 * time.Millisecond)

	v, err = c.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v, "expired entry should recompute")
}

func TestInvalidate(t *testing.T) {
	c := newTestCache(t, nil)
	key := interfaces.NewCacheKey("NVDA", interfaces.KindStress, time.Now())

	var calls int32
	compute := func(context.Context) (interface{}, error) {
		return atomic.AddInt32(&calls, 1), nil
	}

	_, err := c.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(context.Background(), key))

	v, err := c.GetOrCompute(context.Background(), key, compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestMemoryStoreEviction(t *testing.T) {
	store := NewMemoryStore(2, time.Minute)
	defer store.Close()

	store.Set("a", 1, time.Minute)
	time.Sleep(5 * time.Millisecond)
	store.Set("b", 2, time.Minute)
	time.Sleep(5 * time.Millisecond)

	// Touch "a" so "b" becomes the LRU entry.
	_, ok := store.Get("a")
	require.True(t, ok)
	time.Sleep(5 * time.Millisecond)

	store.Set("c", 3, time.Minute)

	_, ok = store.Get("b")
	assert.False(t, ok, "LRU entry should be evicted")
	_, ok = store.Get("a")
	assert.True(t, ok)
	_, ok = store.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, store.Len())
}
