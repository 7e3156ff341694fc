package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out calls to an external service. Wait blocks on a token
// bucket before a call; Done sleeps a fixed delay after it, whatever the
// outcome. Callers run one call at a time.
type Pacer struct {
	limiter *rate.Limiter
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration)
}

// NewPacer creates a pacer allowing perSecond calls with burst 1, followed
// by delay after each call. perSecond <= 0 disables the rate ceiling.
func NewPacer(perSecond float64, delay time.Duration) *Pacer {
	p := &Pacer{delay: delay, sleep: sleepCtx}
	if perSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return p
}

// Wait blocks until the rate ceiling admits another call.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Done applies the fixed post-call delay.
func (p *Pacer) Done(ctx context.Context) {
	if p == nil || p.delay <= 0 {
		return
	}
	p.sleep(ctx, p.delay)
}

// Delay returns the fixed post-call delay.
func (p *Pacer) Delay() time.Duration {
	if p == nil {
		return 0
	}
	return p.delay
}

// Call waits, runs fn, then applies the post-call delay.
func Call[T any](ctx context.Context, p *Pacer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.Wait(ctx); err != nil {
		return zero, err
	}
	defer p.Done(ctx)
	return fn(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
