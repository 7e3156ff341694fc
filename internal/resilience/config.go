package resilience

import (
	"time"

	"github.com/colmmemedsurv/sentinelnode/internal/config"
)

// FromReconcileConfig derives the retry policy, breaker settings and pacer
// used by the bibliographic source adapters.
func FromReconcileConfig(cfg config.ReconcileConfig) (RetryConfig, CircuitBreakerConfig, *Pacer) {
	retry := DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.RetryAttempts
	}

	breaker := DefaultCircuitBreakerConfig()
	if cfg.BreakerThreshold > 0 {
		breaker.FailureThreshold = cfg.BreakerThreshold
	}
	if cfg.BreakerResetSecs > 0 {
		breaker.ResetTimeout = time.Duration(cfg.BreakerResetSecs) * time.Second
	}

	return retry, breaker, NewPacer(cfg.RatePerSec, cfg.Pace())
}
