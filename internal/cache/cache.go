// Package cache provides get-or-compute memoization for analytics results
package cache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/interfaces"
)

// Store is the backing storage capability the cache needs from its
// environment. The engine is agnostic to what implements it.
type Store interface {
	// Get returns the stored value; the second return is false on miss or
	// expiry.
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL.
	Set(key string, value interface{}, ttl time.Duration)

	// Delete drops a key.
	Delete(key string)

	// Close releases background resources.
	Close() error
}

// Metrics receives cache outcome counts. Satisfied by metrics.Recorder;
// nil-safe via noopMetrics.
type Metrics interface {
	CacheHit(kind string)
	CacheMiss(kind string)
}

type noopMetrics struct{}

func (noopMetrics) CacheHit(string)  {}
func (noopMetrics) CacheMiss(string) {}

// ResultCache memoizes expensive computations keyed by (subject, kind,
// as-of date) with a TTL per computation kind. Concurrent callers for the
// same key share one computation via singleflight.
type ResultCache struct {
	store   Store
	ttls    map[interfaces.ComputationKind]time.Duration
	group   singleflight.Group
	logger  *common.Logger
	metrics Metrics
}

// Option configures a ResultCache
type Option func(*ResultCache)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(c *ResultCache) {
		c.metrics = m
	}
}

// New creates a ResultCache over a backing store. Kinds absent from ttls
// fall back to a one-minute TTL.
func New(store Store, ttls map[interfaces.ComputationKind]time.Duration, logger *common.Logger, opts ...Option) *ResultCache {
	c := &ResultCache{
		store:   store,
		ttls:    ttls,
		logger:  logger,
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTLsFromConfig builds the per-kind TTL table from configuration.
func TTLsFromConfig(cfg common.CacheConfig) map[interfaces.ComputationKind]time.Duration {
	return map[interfaces.ComputationKind]time.Duration{
		interfaces.KindQuote:         common.GetTTL(cfg.QuoteTTL, 30*time.Second),
		interfaces.KindIndicators:    common.GetTTL(cfg.IndicatorTTL, 15*time.Minute),
		interfaces.KindOpportunities: common.GetTTL(cfg.OpportunityTTL, time.Hour),
		interfaces.KindRiskProfile:   common.GetTTL(cfg.RiskTTL, time.Hour),
		interfaces.KindPortfolioRisk: common.GetTTL(cfg.RiskTTL, time.Hour),
		interfaces.KindStress:        common.GetTTL(cfg.StressTTL, 4*time.Hour),
	}
}

const defaultTTL = time.Minute

func (c *ResultCache) ttlFor(kind interfaces.ComputationKind) time.Duration {
	if ttl, ok := c.ttls[kind]; ok {
		return ttl
	}
	return defaultTTL
}

func storeKey(key interfaces.CacheKey) string {
	return string(key.Kind) + "\x00" + key.Subject + "\x00" + key.AsOf
}

// GetOrCompute returns the cached value for key or runs compute exactly
// once, caching its result. Errors propagate to every waiting caller and
// are never cached.
func (c *ResultCache) GetOrCompute(ctx context.Context, key interfaces.CacheKey, compute interfaces.ComputeFunc) (interface{}, error) {
	sk := storeKey(key)

	if v, ok := c.store.Get(sk); ok {
		c.metrics.CacheHit(string(key.Kind))
		return v, nil
	}

	v, err, shared := c.group.Do(sk, func() (interface{}, error) {
		// Re-check: another flight may have populated the store between the
		// miss and this call.
		if v, ok := c.store.Get(sk); ok {
			return v, nil
		}
		c.metrics.CacheMiss(string(key.Kind))

		value, err := compute(ctx)
		if err != nil {
			return nil, fmt.Errorf("compute %s/%s: %w", key.Kind, key.Subject, err)
		}
		c.store.Set(sk, value, c.ttlFor(key.Kind))
		return value, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		c.logger.Debug().
			Str("kind", string(key.Kind)).
			Str("subject", key.Subject).
			Msg("Cache computation shared across callers")
	}
	return v, nil
}

// Invalidate drops a cached entry.
func (c *ResultCache) Invalidate(_ context.Context, key interfaces.CacheKey) error {
	c.store.Delete(storeKey(key))
	return nil
}

// Close releases the backing store.
func (c *ResultCache) Close() error {
	return c.store.Close()
}

// Ensure ResultCache implements the contract
var _ interfaces.ResultCache = (*ResultCache)(nil)
