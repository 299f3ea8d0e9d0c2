package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Delayer is the injectable delay strategy used by the scraping pipeline.
type Delayer interface {
	Sleep(ctx context.Context, min, max time.Duration)
}

// Jitter sleeps for a uniformly random duration in [min, max], returning
// early when the context is canceled.
type Jitter struct{}

func (Jitter) Sleep(ctx context.Context, min, max time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(jitterDelay(min, max)):
	}
}

// NoDelay returns immediately.
type NoDelay struct{}

func (NoDelay) Sleep(context.Context, time.Duration, time.Duration) {}

func jitterDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// SimpleRateLimiter spaces out successive actions through the given delay
// strategy. The batch runner uses it to pace run starts against the same
// marketplace; with NoDelay injected it imposes no spacing at all.
type SimpleRateLimiter struct {
	delayer    Delayer
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func NewSimpleRateLimiter(delayer Delayer, minDelay, maxDelay time.Duration) *SimpleRateLimiter {
	return &SimpleRateLimiter{
		delayer:  delayer,
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

func (r *SimpleRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.lastAction)
	if elapsed < r.minDelay {
		r.delayer.Sleep(ctx, r.minDelay-elapsed, r.maxDelay-elapsed)
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	r.lastAction = time.Now()
	return nil
}

func (r *SimpleRateLimiter) SetDelay(min, max time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.minDelay = min
	r.maxDelay = max
}
