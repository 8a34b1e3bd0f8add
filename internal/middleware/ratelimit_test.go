package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func fromIP(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":4321"
	return req
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimiter(ctx, RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})(okHandler())

	for range 2 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, fromIP("10.0.0.1"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, fromIP("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, rec.Body.String())

	// Other clients have their own bucket.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, fromIP("10.0.0.2"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	h := RateLimiter(context.Background(), RateLimitConfig{})(okHandler())
	for range 50 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, fromIP("10.0.0.1"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:55000"
	req.Header.Set("X-Forwarded-For", "203.0.113.1")
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", clientIP(req))
}
