// Package middleware provides the dashboard API's HTTP middleware.
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shashiranjanraj/storeadmin/pkg/response"
)

type visitor struct {
	limiter *rate.Limiter
	seen    time.Time
}

// limiterSet hands out one token bucket per client IP.
type limiterSet struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

func (s *limiterSet) get(ip string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Evict idle visitors on the way; a full bucket carries no state.
	for k, v := range s.visitors {
		if now.Sub(v.seen) > s.idle {
			delete(s.visitors, k)
		}
	}

	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[ip] = v
	}
	v.seen = now
	return v.limiter
}

// RateLimit returns a middleware that allows each client IP max requests
// per window, with bursts up to max. max <= 0 disables limiting.
//
//	r.Use(middleware.RateLimit(300, time.Minute))
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	if max <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	set := &limiterSet{
		visitors: map[string]*visitor{},
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		idle:     2 * window,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !set.get(clientIP(r), time.Now()).Allow() {
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
