package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a computed entry stays valid after insertion
const DefaultTTL = 5 * time.Minute

// Config controls a coordinator's lifetime bounds
type Config struct {
	Name string
	TTL  time.Duration
	// Size caps the number of entries; 0 means unbounded
	Size int
}

// Coordinator memoizes computed values per key. At most one computation runs
// per key; completed entries expire a fixed TTL after insertion regardless of
// reads, and an expired entry is recomputed by the next request.
type Coordinator[V any] struct {
	name    string
	group   singleflight.Group
	store   *expirable.LRU[string, V]
	metrics *Metrics
	logger  *zap.Logger
}

// NewCoordinator creates a coordinator. Metrics are registered on reg when it is not nil.
func NewCoordinator[V any](config Config, reg prometheus.Registerer, logger *zap.Logger) (*Coordinator[V], error) {
	if config.TTL <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive, got %s", config.TTL)
	}
	if config.Size < 0 {
		return nil, fmt.Errorf("cache size cannot be negative, got %d", config.Size)
	}
	if config.Name == "" {
		config.Name = "analysis"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Coordinator[V]{
		name:    config.Name,
		metrics: NewMetrics(reg, config.Name),
		logger:  logger.With(zap.String("cache", config.Name)),
	}
	c.store = expirable.NewLRU[string, V](config.Size, c.onEvict, config.TTL)
	return c, nil
}

// Get returns the cached value for key, computing it once if absent.
// Concurrent callers for the same key share one computation and receive the
// same value. A caller whose ctx ends returns early with ctx.Err(); the
// computation still finishes and populates the cache. Errors are not cached.
func (c *Coordinator[V]) Get(ctx context.Context, key string, compute func() (V, error)) (V, error) {
	var zero V

	if v, ok := c.store.Get(key); ok {
		c.metrics.Hits.Inc()
		c.logger.Debug("cache hit", zap.String("key", key))
		return v, nil
	}
	c.metrics.Misses.Inc()

	ch := c.group.DoChan(key, func() (any, error) {
		// Another flight may have completed between the lookup and now
		if v, ok := c.store.Get(key); ok {
			return v, nil
		}

		start := time.Now()
		v, err := compute()
		elapsed := time.Since(start)
		c.metrics.ComputeDuration.Observe(elapsed.Seconds())

		if err != nil {
			c.metrics.Computations.WithLabelValues("error").Inc()
			c.logger.Warn("computation failed", zap.String("key", key), zap.Duration("duration", elapsed), zap.Error(err))
			return zero, err
		}

		c.store.Add(key, v)
		c.metrics.Computations.WithLabelValues("success").Inc()
		c.logger.Debug("computation cached", zap.String("key", key), zap.Duration("duration", elapsed))
		return v, nil
	})

	select {
	case <-ctx.Done():
		c.metrics.Abandoned.Inc()
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.Coalesced.Inc()
		}
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// Peek returns a completed entry without computing
func (c *Coordinator[V]) Peek(key string) (V, bool) {
	return c.store.Peek(key)
}

// Purge drops every completed entry
func (c *Coordinator[V]) Purge() {
	c.store.Purge()
	c.logger.Debug("cache purged")
}

// Len returns the number of entries, including expired ones not yet evicted
func (c *Coordinator[V]) Len() int {
	return c.store.Len()
}

func (c *Coordinator[V]) onEvict(key string, _ V) {
	c.logger.Debug("cache entry evicted", zap.String("key", key))
}
