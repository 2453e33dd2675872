package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paycore/processor-gateway/pkg/logging"
)

func TestRateLimiter_PerIPBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "other clients have their own bucket")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "tokens refill over time")
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(2 * visitorIdle)
	rl.Allow("10.0.0.2")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestRateLimit_Middleware(t *testing.T) {
	h := RateLimit(NewRateLimiter(0.001, 1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil)
	req.Header.Set("X-Real-Ip", "203.0.113.9")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Real-Ip", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", clientIP(req))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info")
	h := chimw.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/processors", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	reqID := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, reqID)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request completed", entry["msg"])
	assert.Equal(t, "/processors", entry["path"])
	assert.Equal(t, float64(http.StatusAccepted), entry["status"])
	assert.Equal(t, float64(2), entry["bytes"])
	assert.Equal(t, reqID, entry["request_id"])
}

func TestRequestLogger_UsesInboundHeader(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(logging.NewWithWriter(&buf, "info"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"status":200`)
}
