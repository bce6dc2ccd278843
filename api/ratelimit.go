package api

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterIdle   = 10 * time.Minute
	sweepInterval = 5 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// senderLimiter keeps one token bucket per sender. Buckets idle for longer
// than idle are dropped on the next sweep.
type senderLimiter struct {
	limit     rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	limiters  sync.Map // string -> *limiterEntry
	lastSweep atomic.Int64
}

func newSenderLimiter(rpm, burst int) *senderLimiter {
	if rpm <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Minute / time.Duration(rpm)
	// an evicted bucket comes back full, so it must have had time to refill
	idle := max(limiterIdle, time.Duration(burst)*interval)
	return &senderLimiter{
		limit: rate.Every(interval),
		burst: burst,
		idle:  idle,
		now:   time.Now,
	}
}

func (l *senderLimiter) allow(key string) bool {
	now := l.now()
	l.sweep(now)

	v, ok := l.limiters.Load(key)
	if !ok {
		v, _ = l.limiters.LoadOrStore(key, &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)})
	}
	entry := v.(*limiterEntry)
	entry.lastSeen.Store(now.UnixNano())
	return entry.limiter.AllowN(now, 1)
}

// sweep drops idle buckets at most once per sweepInterval.
func (l *senderLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(sweepInterval) || !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-l.idle).UnixNano()
	l.limiters.Range(func(key, value any) bool {
		if value.(*limiterEntry).lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
		}
		return true
	})
}

// limitKey is the sender, or the remote host for anonymous requests.
func limitKey(r *http.Request) string {
	if sender := r.Header.Get(SenderHeader); sender != "" {
		return "sender:" + sender
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

// limited wraps a mutating handler with the per-sender rate limit.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.allow(limitKey(r)) {
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}
