package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"
)

// loginLimiter is a fixed-window rate limiter for login attempts, keyed by
// client address. State is in-memory: limits reset on restart, which is an
// accepted trade-off for a single-process deployment.
type loginLimiter struct {
	windows  map[string]*attemptWindow
	mu       sync.Mutex
	limit    int
	interval time.Duration
}

type attemptWindow struct {
	count   int
	resetAt time.Time
}

// newLoginLimiter creates a limiter allowing limit attempts per interval
// per client address.
func newLoginLimiter(limit int, interval time.Duration) *loginLimiter {
	return &loginLimiter{
		windows:  make(map[string]*attemptWindow),
		limit:    limit,
		interval: interval,
	}
}

// allow records an attempt for the given key and reports whether it is
// within the limit. Every attempt counts, successful or not; a correct
// password on the sixth try inside the window is still rejected upstream.
func (l *loginLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &attemptWindow{count: 1, resetAt: now.Add(l.interval)}
		return true
	}

	w.count++
	return w.count <= l.limit
}

// cleanExpired removes windows whose reset time has passed.
func (l *loginLimiter) cleanExpired() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// cleanLoop runs cleanExpired periodically until the context is cancelled.
func (l *loginLimiter) cleanLoop(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanExpired()
		}
	}
}

// rateLimitMiddleware rejects requests from clients that exceeded the login
// attempt limit. It wraps only the login route.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientAddr(r)) {
			writeTooManyRequests(w, "too many login attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr extracts the client IP without the port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
