package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(3, 15*time.Minute, 30*time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "другой адрес имеет свой лимит")

	now = now.Add(6 * time.Minute)
	assert.True(t, l.Allow("10.0.0.1"), "маркер восстановился")
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestRateLimiter_EvictsStaleClients(t *testing.T) {
	now := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(10, time.Minute, 30*time.Minute)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")
	assert.Equal(t, 2, l.Len())

	now = now.Add(20 * time.Minute)
	l.Allow("10.0.0.2")
	now = now.Add(15 * time.Minute)
	l.Allow("10.0.0.3")
	assert.Equal(t, 2, l.Len())
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(1, time.Hour, time.Hour)
	h := l.Middleware(slog.New(slog.NewTextHandler(io.Discard, nil)))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		req.RemoteAddr = "192.168.1.5:40000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0, time.Minute, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a"))
	}
}
