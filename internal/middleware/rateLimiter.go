package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/akolanti/docsync/internal/config"
)

var limiterInstance = NewIPRateLimiter(rate.Limit(config.RATE_LIMIT_PER_SECOND), config.BURST_RATE_LIMIT_PER_SECOND)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client address. Buckets idle
// for longer than IdleTTL are dropped on the next sweep.
type IPRateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rateLimit rate.Limit
	burst     int
	IdleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		buckets:   make(map[string]*bucket),
		rateLimit: r,
		burst:     b,
		IdleTTL:   config.RateLimiterIdleTTL,
		now:       time.Now,
	}
}

func (i *IPRateLimiter) Allow(ip string) bool {
	return i.GetLimiter(ip).Allow()
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastSweep) >= i.IdleTTL {
		i.sweep(now)
	}

	b, exists := i.buckets[ip]
	if !exists {
		b = &bucket{limiter: rate.NewLimiter(i.rateLimit, i.burst)}
		i.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Len reports how many addresses currently hold a bucket.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.buckets)
}

func (i *IPRateLimiter) sweep(now time.Time) {
	for ip, b := range i.buckets {
		if now.Sub(b.lastSeen) >= i.IdleTTL {
			delete(i.buckets, ip)
		}
	}
	i.lastSweep = now
}

// TODO: move the buckets to Redis once more than one serve process sits behind the same address.
