package httppresentation

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 30 * time.Minute
	limiterSweepSize = 1024
)

type ipLimiter struct {
	limiter *rate.Limiter
	last    time.Time
}

// limiterStore hands out one token bucket per client IP.
type limiterStore struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	ips   map[string]*ipLimiter
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	if burst <= 0 {
		burst = 1
	}
	return &limiterStore{rps: rate.Limit(rps), burst: burst, ips: make(map[string]*ipLimiter)}
}

func (s *limiterStore) allow(ip string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	il, ok := s.ips[ip]
	if !ok {
		if len(s.ips) >= limiterSweepSize {
			s.sweep(now)
		}
		il = &ipLimiter{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.ips[ip] = il
	}
	il.last = now
	return il.limiter.AllowN(now, 1)
}

func (s *limiterStore) sweep(now time.Time) {
	for ip, il := range s.ips {
		if now.Sub(il.last) > limiterIdleTTL {
			delete(s.ips, ip)
		}
	}
}

// withRateLimit rejects clients that exceed the store's rate with 429.
// A nil store disables limiting.
func withRateLimit(store *limiterStore, next http.Handler) http.Handler {
	if store == nil || store.rps <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !store.allow(remoteIP(r), time.Now()) {
			writeError(w, http.StatusTooManyRequests, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// remoteIP relies on chi's RealIP middleware having normalised RemoteAddr.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
