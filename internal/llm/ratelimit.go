package llm

import (
	"context"
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter: at most limit events per
// window. Wait blocks until an event is allowed or the context is done.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	events []time.Time
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter allowing limit events per window.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Wait blocks until the caller may proceed. It returns early with the
// context error if ctx is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.events) < l.limit {
			l.events = append(l.events, now)
			l.mu.Unlock()
			return nil
		}

		// Oldest event leaving the window frees the next slot.
		wait := l.events[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune drops events outside the window. Caller holds the lock.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.events) && !l.events[i].After(cutoff) {
		i++
	}
	l.events = l.events[i:]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
