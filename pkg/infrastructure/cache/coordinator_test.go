package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/shelfwatch/pkg/infrastructure/cache"
)

type analysis struct {
	id string
}

func newCoordinator(t *testing.T, ttl time.Duration, reg prometheus.Registerer) *cache.Coordinator[*analysis] {
	t.Helper()
	c, err := cache.NewCoordinator[*analysis](cache.Config{Name: "test", TTL: ttl}, reg, nil)
	require.NoError(t, err)
	return c
}

func TestNewCoordinator_Validation(t *testing.T) {
	_, err := cache.NewCoordinator[int](cache.Config{TTL: 0}, nil, nil)
	assert.Error(t, err)

	_, err = cache.NewCoordinator[int](cache.Config{TTL: time.Second, Size: -1}, nil, nil)
	assert.Error(t, err)
}

func TestGet_ConcurrentRequestsShareOneComputation(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newCoordinator(t, time.Minute, reg)

	var computations atomic.Int32
	release := make(chan struct{})
	compute := func() (*analysis, error) {
		computations.Add(1)
		<-release
		return &analysis{id: "snap@2024-06-01"}, nil
	}

	const callers = 8
	results := make([]*analysis, callers)
	var started, done sync.WaitGroup
	for i := 0; i < callers; i++ {
		started.Add(1)
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			v, err := c.Get(context.Background(), "snap@2024-06-01", compute)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	started.Wait()
	// Give every caller time to join the flight before it completes
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.Equal(t, int32(1), computations.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	again, err := c.Get(context.Background(), "snap@2024-06-01", compute)
	require.NoError(t, err)
	assert.Same(t, results[0], again)
	assert.Equal(t, int32(1), computations.Load())
	assert.Equal(t, 1, c.Len())
}

func TestGet_ExpiredEntryIsRecomputed(t *testing.T) {
	c := newCoordinator(t, 30*time.Millisecond, nil)

	var computations atomic.Int32
	compute := func() (*analysis, error) {
		computations.Add(1)
		return &analysis{id: "k"}, nil
	}

	first, err := c.Get(context.Background(), "k", compute)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	second, err := c.Get(context.Background(), "k", compute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), computations.Load())
	assert.NotSame(t, first, second)
}

func TestGet_CancelledCallerReturnsEarly(t *testing.T) {
	c := newCoordinator(t, time.Minute, nil)

	release := make(chan struct{})
	finished := make(chan struct{})
	compute := func() (*analysis, error) {
		defer close(finished)
		<-release
		return &analysis{id: "slow"}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "slow", compute)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	<-finished

	// The abandoned computation still populates the cache
	assert.Eventually(t, func() bool {
		_, ok := c.Peek("slow")
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestGet_ErrorsAreNotCached(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newCoordinator(t, time.Minute, reg)

	boom := errors.New("boom")
	var calls atomic.Int32
	compute := func() (*analysis, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return &analysis{id: "ok"}, nil
	}

	_, err := c.Get(context.Background(), "k", compute)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, err := c.Get(context.Background(), "k", compute)
	require.NoError(t, err)
	assert.Equal(t, "ok", v.id)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMetrics_CountHitsAndMisses(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := cache.NewCoordinator[int](cache.Config{Name: "metrics", TTL: time.Minute}, reg, nil)
	require.NoError(t, err)

	compute := func() (int, error) { return 42, nil }
	for i := 0; i < 3; i++ {
		v, err := c.Get(context.Background(), "k", compute)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}

	metrics, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, family := range metrics {
		for _, m := range family.GetMetric() {
			if m.GetCounter() != nil {
				values[family.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 2.0, values["shelfwatch_cache_hits_total"])
	assert.Equal(t, 1.0, values["shelfwatch_cache_misses_total"])
	assert.Equal(t, 1.0, values["shelfwatch_cache_computations_total"])
}

func TestNewMetrics_NilRegistererDoesNotPanic(t *testing.T) {
	m := cache.NewMetrics(nil, "unregistered")
	m.Hits.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Hits))
}
