package monitor

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vsinha/shelfwatch/pkg/application/services/audit"
	"github.com/vsinha/shelfwatch/pkg/domain/entities"
	"github.com/vsinha/shelfwatch/pkg/domain/services"
	"github.com/vsinha/shelfwatch/pkg/infrastructure/cache"
	"github.com/vsinha/shelfwatch/pkg/infrastructure/events"
)

// Options configure the thresholds, tolerances and cache of a Monitor
type Options struct {
	Deviation          services.DeviationThresholds
	Urgency            services.UrgencyThresholds
	Tolerances         audit.Tolerances
	CacheTTL           time.Duration
	CacheSize          int
	ExcludedCategories entities.CategorySet
	CategoryRules      []services.CategoryRule
	NoExpiryYear       int
}

// DefaultOptions returns the thresholds and exclusion rules used on the shop floor
func DefaultOptions() Options {
	return Options{
		Deviation:          services.DefaultDeviationThresholds(),
		Urgency:            services.DefaultUrgencyThresholds(),
		Tolerances:         audit.DefaultTolerances(),
		CacheTTL:           cache.DefaultTTL,
		ExcludedCategories: entities.DefaultExcludedCategories(),
		CategoryRules:      services.DefaultCategoryRules(),
		NoExpiryYear:       entities.NoExpiryYear,
	}
}

// Validate checks the option values that the component constructors do not cover
func (o Options) Validate() error {
	if o.CacheTTL < 0 {
		return fmt.Errorf("cache TTL cannot be negative, got %s", o.CacheTTL)
	}
	if o.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative, got %d", o.CacheSize)
	}
	if o.NoExpiryYear < 0 {
		return fmt.Errorf("no-expiry year cannot be negative, got %d", o.NoExpiryYear)
	}
	return nil
}

// Option customizes a Monitor's collaborators
type Option func(*Monitor)

// WithClock sets the source of "now"
func WithClock(clock func() time.Time) Option {
	return func(m *Monitor) {
		m.clock = clock
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithEventStore publishes pipeline events to store
func WithEventStore(store events.EventStore) Option {
	return func(m *Monitor) {
		m.events = store
	}
}

// WithRegisterer registers the cache metrics on reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Monitor) {
		m.registerer = reg
	}
}
