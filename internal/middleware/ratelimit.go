package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimitMiddleware provides basic per-IP rate limiting
type RateLimitMiddleware struct {
	requests  map[string][]int64 // IP -> timestamps
	mu        sync.Mutex
	now       func() time.Time
	lastPrune int64
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]int64),
		now:      time.Now,
	}
}

// RateLimit allows maxRequests per client IP within a sliding window.
// A non-positive maxRequests disables the limit.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxRequests <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.allow(getClientIP(r), maxRequests, window) {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) allow(clientIP string, maxRequests int, window time.Duration) bool {
	now := m.now().UnixNano()
	windowStart := now - int64(window)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Idle clients are swept at most once per window.
	if now-m.lastPrune >= int64(window) {
		m.prune(windowStart)
		m.lastPrune = now
	}

	valid := m.requests[clientIP][:0]
	for _, ts := range m.requests[clientIP] {
		if ts > windowStart {
			valid = append(valid, ts)
		}
	}
	if len(valid) >= maxRequests {
		m.requests[clientIP] = valid
		return false
	}
	m.requests[clientIP] = append(valid, now)
	return true
}

// Prune drops clients with no requests inside window.
func (m *RateLimitMiddleware) Prune(window time.Duration) {
	windowStart := m.now().UnixNano() - int64(window)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prune(windowStart)
}

func (m *RateLimitMiddleware) prune(windowStart int64) {
	for ip, timestamps := range m.requests {
		if len(timestamps) == 0 || timestamps[len(timestamps)-1] <= windowStart {
			delete(m.requests, ip)
		}
	}
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check for forwarded headers first
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	// Fall back to remote address
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
