package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPacer_DoneSleepsAfterEveryCall(t *testing.T) {
	p := NewPacer(0, 250*time.Millisecond)
	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }

	_, _ = Call(context.Background(), p, func(_ context.Context) (int, error) { return 1, nil })
	_, _ = Call(context.Background(), p, func(_ context.Context) (int, error) { return 0, errors.New("fail") })

	if len(slept) != 2 || slept[0] != 250*time.Millisecond || slept[1] != 250*time.Millisecond {
		t.Errorf("expected two 250ms delays, got %v", slept)
	}
}

func TestPacer_WaitHonorsRate(t *testing.T) {
	p := NewPacer(20, 0)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	// Burst 1 at 20/s: the second and third calls each wait ~50ms.
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected calls to be spaced out, took %v", elapsed)
	}
}

func TestPacer_WaitCancelled(t *testing.T) {
	p := NewPacer(0.001, 0)
	_ = p.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}

	_, err := Call(ctx, p, func(_ context.Context) (int, error) {
		t.Error("fn must not run when wait fails")
		return 0, nil
	})
	if err == nil {
		t.Error("expected error from Call")
	}
}

func TestPacer_Nil(t *testing.T) {
	var p *Pacer
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("nil pacer should not block: %v", err)
	}
	p.Done(context.Background())
	if p.Delay() != 0 {
		t.Error("nil pacer has no delay")
	}
}

func TestSleepCtx_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	sleepCtx(ctx, time.Minute)
	if time.Since(start) > time.Second {
		t.Error("sleep should return when the context is done")
	}
}
