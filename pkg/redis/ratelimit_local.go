package redis

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter is a token-bucket limiter per key, kept in process memory.
// Each key refills Limit tokens per Window with a burst of Limit.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	now      func() time.Time
}

// NewLocalLimiter creates an in-process limiter
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		limiters: make(map[string]*rate.Limiter),
		now:      time.Now,
	}
}

// Allow reports whether a request for cfg.Key may proceed now
func (l *LocalLimiter) Allow(_ context.Context, cfg RateLimitConfig) (bool, int, error) {
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return true, cfg.Limit, nil
	}

	l.mu.Lock()
	lim, ok := l.limiters[cfg.Key]
	if !ok {
		every := rate.Every(cfg.Window / time.Duration(cfg.Limit))
		lim = rate.NewLimiter(every, cfg.Limit)
		l.limiters[cfg.Key] = lim
	}
	l.mu.Unlock()

	now := l.now()
	if !lim.AllowN(now, 1) {
		return false, 0, nil
	}

	remaining := int(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining, nil
}
