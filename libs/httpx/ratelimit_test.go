package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newInMemoryLimited(limit int, window time.Duration) http.Handler {
	rl := NewRateLimiter(limit, window)
	return rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	h := newInMemoryLimited(3, time.Minute)

	for i := 0; i < 3; i++ {
		rec := doRequest(h, "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}
	rec := doRequest(h, "10.0.0.1:1234")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_KeysByClient(t *testing.T) {
	h := newInMemoryLimited(1, time.Minute)

	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:5678").Code, "same IP, different port shares the window")
	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.2:1234").Code, "another client gets its own window")
}

func TestRateLimiter_PrefersForwardedFor(t *testing.T) {
	h := newInMemoryLimited(1, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Same forwarded client from a different proxy hop still shares the window.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.RemoteAddr = "10.0.0.2:1234"
	req2.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	h := newInMemoryLimited(1, 20*time.Millisecond)

	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:1234").Code)

	time.Sleep(40 * time.Millisecond)
	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234").Code)
}
