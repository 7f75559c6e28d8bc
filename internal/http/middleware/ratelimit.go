package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const (
	// limiterIdleTTL is how long a client's bucket survives without traffic
	// before a sweep may drop it.
	limiterIdleTTL = 3 * time.Minute
	// limiterSweepAt is the map size that triggers a sweep of idle entries.
	limiterSweepAt = 1024
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterStore holds one token bucket per client IP. Idle entries are swept
// once the map grows past limiterSweepAt, so the map size stays bounded by
// the number of recently active clients.
type limiterStore struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rate    rate.Limit
	burst   int
	now     func() time.Time
}

func newLimiterStore(perMinute, burst int) *limiterStore {
	return &limiterStore{
		entries: make(map[string]*limiterEntry),
		rate:    rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		now:     time.Now,
	}
}

func (s *limiterStore) allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[ip]
	if !ok {
		if len(s.entries) >= limiterSweepAt {
			s.sweep(now)
		}
		e = &limiterEntry{limiter: rate.NewLimiter(s.rate, s.burst)}
		s.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

// sweep drops entries idle longer than limiterIdleTTL. Caller holds mu.
func (s *limiterStore) sweep(now time.Time) {
	for ip, e := range s.entries {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(s.entries, ip)
		}
	}
}

// RateLimit returns a per-client-IP token bucket limiter. Intended for the
// login endpoint to slow down credential guessing.
func RateLimit(perMinute, burst int) fiber.Handler {
	store := newLimiterStore(perMinute, burst)

	return func(c *fiber.Ctx) error {
		if !store.allow(c.IP()) {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests")
		}
		return c.Next()
	}
}
