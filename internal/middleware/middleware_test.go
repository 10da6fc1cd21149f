package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware(t *testing.T) {
	middleware := NewRateLimitMiddleware()

	t.Run("rate limit not exceeded", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/sessions", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.RateLimit(5, time.Minute)(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rate limit exceeded", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/sessions", nil)
		req.RemoteAddr = "192.168.1.2:12345"
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})
		rateLimitHandler := middleware.RateLimit(1, time.Minute)(handler)

		// First request should succeed
		rateLimitHandler.ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)

		// Second request should be rate limited
		w = httptest.NewRecorder()
		handlerCalled = false
		rateLimitHandler.ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("disabled when zero", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
		limited := middleware.RateLimit(0, time.Minute)(handler)
		for i := 0; i < 10; i++ {
			w := httptest.NewRecorder()
			limited.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestRateLimit_WindowSlides(t *testing.T) {
	m := NewRateLimitMiddleware()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	assert.True(t, m.allow("10.0.0.1", 2, time.Minute))
	assert.True(t, m.allow("10.0.0.1", 2, time.Minute))
	assert.False(t, m.allow("10.0.0.1", 2, time.Minute))
	assert.True(t, m.allow("10.0.0.2", 2, time.Minute))

	now = now.Add(61 * time.Second)
	assert.True(t, m.allow("10.0.0.1", 2, time.Minute))

	now = now.Add(2 * time.Minute)
	m.Prune(time.Minute)
	assert.Empty(t, m.requests)
}

func TestRateLimit_SweepsIdleClients(t *testing.T) {
	m := NewRateLimitMiddleware()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	for i := 0; i < 50; i++ {
		assert.True(t, m.allow(fmt.Sprintf("10.0.1.%d", i), 5, time.Minute))
	}
	assert.Len(t, m.requests, 50)

	now = now.Add(30 * time.Second)
	assert.True(t, m.allow("10.0.2.1", 5, time.Minute))
	assert.Len(t, m.requests, 51)

	now = now.Add(45 * time.Second)
	assert.True(t, m.allow("10.0.2.2", 5, time.Minute))
	assert.Len(t, m.requests, 2)
	assert.Contains(t, m.requests, "10.0.2.1")
	assert.Contains(t, m.requests, "10.0.2.2")
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.9:5555"
	assert.Equal(t, "192.168.1.9", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.1.1.1")
	assert.Equal(t, "10.1.1.1", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", getClientIP(req))
}

func TestLogging(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/sessions/9", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "/api/sessions/9", entry.Data["path"])
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}
