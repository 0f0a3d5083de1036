package onet

import (
	"context"
	"sync"
	"time"

	"github.com/cartographai/discovery-backend/internal/observability"
)

// windowLimiter admits at most limit calls per sliding window. Callers block
// in Wait until the oldest admitted call ages out of the window.
type windowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Second
	}
	return &windowLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Wait blocks until the caller may proceed or ctx is done. The admission
// timestamp is recorded before returning, so concurrent callers are counted.
func (l *windowLimiter) Wait(ctx context.Context) error {
	waited := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.mu.Lock()
		now := l.now()
		cutoff := now.Add(-l.window)
		idx := 0
		for idx < len(l.stamps) && !l.stamps[idx].After(cutoff) {
			idx++
		}
		if idx > 0 {
			l.stamps = append(l.stamps[:0], l.stamps[idx:]...)
		}
		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			if waited {
				observability.Current().IncCatalogWait()
			}
			return nil
		}
		wait := l.stamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()
		waited = true
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
