package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/octobees/user-directory/api/internal/config"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c echo.Context) string

// SessionKey charges requests to the authenticated session.
func SessionKey(c echo.Context) string {
	return SessionIDFromContext(c)
}

// ClientIPKey charges requests to the caller's address.
func ClientIPKey(c echo.Context) string {
	return c.RealIP()
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key. A bucket idle for a whole interval
// has refilled completely, so it is dropped on the next sweep.
type RateLimiter struct {
	cfg     config.RateLimitConfig
	every   time.Duration
	key     KeyFunc
	message string
	now     func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewRateLimiter builds a limiter charging requests by key. A zero config disables limiting.
func NewRateLimiter(cfg config.RateLimitConfig, key KeyFunc, message string) *RateLimiter {
	every := time.Duration(0)
	if cfg.Requests > 0 && cfg.Interval > 0 {
		every = cfg.Interval / time.Duration(cfg.Requests)
		if every <= 0 {
			every = time.Second
		}
	}
	if message == "" {
		message = "rate limit exceeded"
	}
	return &RateLimiter{
		cfg:     cfg,
		every:   every,
		key:     key,
		message: message,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Middleware applies the limiter to the routes it wraps.
func (l *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l == nil || l.every == 0 {
				return next(c)
			}
			if !l.allow(l.key(c)) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": l.message})
			}
			return next(c)
		}
	}
}

// Forget releases the bucket held for key.
func (l *RateLimiter) Forget(key string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Len reports how many buckets are held.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *RateLimiter) allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.cfg.Interval {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= l.cfg.Interval {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(l.every), l.cfg.Requests)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}
