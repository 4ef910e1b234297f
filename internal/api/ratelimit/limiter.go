// Package ratelimit limits API requests per client IP.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	DefaultRequestsPerWindow = 600
	DefaultWindow            = time.Minute
)

// Config configures a Limiter.
type Config struct {
	RequestsPerWindow int
	Window            time.Duration
}

type ipBucket struct {
	count     int
	resetTime time.Time
}

// Limiter is a fixed-window request counter keyed by client IP.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*ipBucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewLimiter creates a limiter. Zero values take the defaults.
func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerWindow <= 0 {
		cfg.RequestsPerWindow = DefaultRequestsPerWindow
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Limiter{
		buckets: make(map[string]*ipBucket),
		limit:   cfg.RequestsPerWindow,
		window:  cfg.Window,
		now:     time.Now,
	}
}

// Middleware rejects requests over the limit with 429. Requests for which
// skip returns true are not counted.
func (l *Limiter) Middleware(skip middleware.Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}

			ok, retryAfter := l.Allow(c.RealIP())
			if !ok {
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds()+0.5)))
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
			}
			return next(c)
		}
	}
}

// Allow counts a request from ip. When the window is exhausted it reports
// false and the time until the window resets.
func (l *Limiter) Allow(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, exists := l.buckets[ip]
	if !exists || now.After(bucket.resetTime) {
		l.buckets[ip] = &ipBucket{count: 1, resetTime: now.Add(l.window)}
		return true, 0
	}

	if bucket.count >= l.limit {
		return false, bucket.resetTime.Sub(now)
	}

	bucket.count++
	return true, 0
}

// Cleanup drops expired buckets.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for ip, bucket := range l.buckets {
		if now.After(bucket.resetTime) {
			delete(l.buckets, ip)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx ends.
func (l *Limiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}
