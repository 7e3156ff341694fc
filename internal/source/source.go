// Package source adapts the bibliographic APIs to the reconciliation
// engine. Adapters never return errors: any failure is logged and reported
// as "no data".
package source

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/resilience"
	"github.com/colmmemedsurv/sentinelnode/pkg/crossref"
	"github.com/colmmemedsurv/sentinelnode/pkg/pubmed"
)

// RegistryLookup fetches registry metadata for a DOI.
type RegistryLookup interface {
	Lookup(ctx context.Context, doi string) *model.RegistryRecord
}

// TitleSearch finds candidate works by title.
type TitleSearch interface {
	Search(ctx context.Context, title string, limit int) []model.Candidate
}

// FullRecordFetcher fetches the biomedical index record for a DOI.
type FullRecordFetcher interface {
	Fetch(ctx context.Context, doi string) *model.FullRecord
}

// Cache stores successful lookups. GetCachedLookup returns nil on a miss.
type Cache interface {
	GetCachedLookup(ctx context.Context, key string) ([]byte, error)
	SetCachedLookup(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Option configures an adapter.
type Option func(*guard)

// WithPacer shares a pacer between adapters. Every outbound request waits
// on it.
func WithPacer(p *resilience.Pacer) Option {
	return func(g *guard) {
		g.pacer = p
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(g *guard) {
		g.retry = cfg
	}
}

// WithBreakers takes the adapter's circuit breaker from a shared registry.
func WithBreakers(sb *resilience.ServiceBreakers) Option {
	return func(g *guard) {
		g.breakers = sb
	}
}

// WithCache enables the lookup cache. ttl <= 0 leaves it disabled.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(g *guard) {
		if c != nil && ttl > 0 {
			g.cache = c
			g.ttl = ttl
		}
	}
}

// guard wraps every outbound call in pacing, a circuit breaker and retries.
type guard struct {
	name     string
	pacer    *resilience.Pacer
	retry    resilience.RetryConfig
	breakers *resilience.ServiceBreakers
	breaker  *resilience.CircuitBreaker
	cache    Cache
	ttl      time.Duration
}

func newGuard(name string, opts []Option) *guard {
	g := &guard{name: name, retry: resilience.DefaultRetryConfig()}
	for _, o := range opts {
		o(g)
	}
	if g.breakers == nil {
		g.breakers = resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig())
	}
	g.breaker = g.breakers.Get(name)
	if g.retry.OnRetry == nil {
		g.retry.OnRetry = resilience.RetryLogger(name, "lookup")
	}
	return g
}

// call runs fn with retries; each attempt passes the breaker and the pacer.
func call[T any](ctx context.Context, g *guard, fn func(ctx context.Context) (T, error)) (T, error) {
	return resilience.DoVal(ctx, g.retry, func(ctx context.Context) (T, error) {
		return resilience.ExecuteVal(ctx, g.breaker, func(ctx context.Context) (T, error) {
			v, err := resilience.Call(ctx, g.pacer, fn)
			return v, transient(err)
		})
	})
}

// cached consults the cache before fetch and stores non-nil results.
func cached[T any](ctx context.Context, g *guard, key string, fetch func(ctx context.Context) *T) *T {
	if g.cache != nil {
		data, err := g.cache.GetCachedLookup(ctx, key)
		if err != nil {
			zap.L().Debug("source: cache read failed", zap.String("key", key), zap.Error(err))
		} else if data != nil {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return &v
			}
		}
	}

	v := fetch(ctx)
	if v == nil || g.cache == nil {
		return v
	}

	data, err := json.Marshal(v)
	if err == nil {
		err = g.cache.SetCachedLookup(ctx, key, data, g.ttl)
	}
	if err != nil {
		zap.L().Debug("source: cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v
}

// transient marks retryable HTTP statuses from the API clients.
func transient(err error) error {
	if err == nil {
		return nil
	}
	var crErr *crossref.APIError
	if errors.As(err, &crErr) && resilience.IsTransientHTTPStatus(crErr.StatusCode) {
		return resilience.NewTransientError(err, crErr.StatusCode)
	}
	var pmErr *pubmed.APIError
	if errors.As(err, &pmErr) && resilience.IsTransientHTTPStatus(pmErr.StatusCode) {
		return resilience.NewTransientError(err, pmErr.StatusCode)
	}
	return err
}
