package counter

import (
	"context"
	"time"
)

// Ticker schedules the fixed-period ticks of a running stat animation. fn is
// called once per tick and reports whether the animation wants more ticks.
type Ticker interface {
	Go(ctx context.Context, period time.Duration, fn func() bool)
}

// IntervalTicker drives animations from a wall-clock ticker in a separate
// goroutine. This is the production ticker.
type IntervalTicker struct{}

// Go implements Ticker.
func (IntervalTicker) Go(ctx context.Context, period time.Duration, fn func() bool) {
	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if !fn() {
					return
				}
			}
		}
	}()
}

// InlineTicker runs the whole animation synchronously in the caller's
// goroutine, ignoring the period. It makes animations deterministic for the
// verify command and for tests.
type InlineTicker struct{}

// Go implements Ticker.
func (InlineTicker) Go(ctx context.Context, _ time.Duration, fn func() bool) {
	for fn() {
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
