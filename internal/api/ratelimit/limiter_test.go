package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestLimiter_Allow(t *testing.T) {
	l := NewLimiter(Config{RequestsPerWindow: 2, Window: time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, retry := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "buckets are per IP")

	now = now.Add(time.Minute + time.Second)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok, "window resets")
}

func TestLimiter_Cleanup(t *testing.T) {
	l := NewLimiter(Config{RequestsPerWindow: 1, Window: time.Second})
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(2 * time.Second)
	l.Cleanup()

	assert.Empty(t, l.buckets)
}

func TestLimiter_Middleware(t *testing.T) {
	l := NewLimiter(Config{RequestsPerWindow: 1})
	e := echo.New()
	e.Use(l.Middleware(func(c echo.Context) bool { return c.Path() == "/ws" }))
	e.GET("/titles", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/ws", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("/titles").Code)
	rec := do("/titles")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, do("/ws").Code)
}
