package httpx

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLimitedHandler(t *testing.T, limit int, failOpen bool) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := NewRedisRateLimiter(rdb, limit, time.Minute, "test")
	logger := slog.New(slog.DiscardHandler)
	h := rl.Middleware(logger, failOpen)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return h, mr
}

func doRequest(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRedisRateLimiter_BlocksOverLimit(t *testing.T) {
	h, _ := newLimitedHandler(t, 3, false)

	for i := 0; i < 3; i++ {
		rec := doRequest(h, "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}
	rec := doRequest(h, "10.0.0.1:1234")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRedisRateLimiter_KeysByClient(t *testing.T) {
	h, _ := newLimitedHandler(t, 1, false)

	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:5678").Code, "same IP, different port shares the window")
	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.2:1234").Code, "another client gets its own window")
}

func TestRedisRateLimiter_WindowExpires(t *testing.T) {
	h, mr := newLimitedHandler(t, 1, false)

	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(h, "10.0.0.1:1234").Code)

	mr.FastForward(time.Minute + time.Second)
	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234").Code)
}

func TestRedisRateLimiter_FailOpenOnRedisDown(t *testing.T) {
	h, mr := newLimitedHandler(t, 1, true)
	mr.Close()

	require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1:1234").Code)
}

func TestRedisRateLimiter_FailClosedOnRedisDown(t *testing.T) {
	h, mr := newLimitedHandler(t, 1, false)
	mr.Close()

	require.Equal(t, http.StatusServiceUnavailable, doRequest(h, "10.0.0.1:1234").Code)
}
