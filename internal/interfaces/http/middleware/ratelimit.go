package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// RequesterLimiter keeps one token bucket per requester, falling back to the
// client address for anonymous callers.
type RequesterLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRequesterLimiter allows perSecond sustained requests with the given
// burst. Buckets unused for idle are dropped by Cleanup.
func NewRequesterLimiter(perSecond float64, burst int, idle time.Duration) *RequesterLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RequesterLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		buckets: make(map[string]*limiterEntry),
	}
}

// Reserve takes a token for key. It returns false and the wait until the
// next token when the bucket is empty.
func (l *RequesterLimiter) Reserve(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	entry, ok := l.buckets[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	if entry.limiter.AllowN(now, 1) {
		return true, 0
	}
	wait := time.Second
	if l.limit > 0 {
		wait = time.Duration(float64(time.Second) / float64(l.limit))
	}
	return false, wait
}

// Cleanup drops idle buckets.
func (l *RequesterLimiter) Cleanup() {
	cutoff := l.now().Add(-l.idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, entry := range l.buckets {
		if entry.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of live buckets.
func (l *RequesterLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (l *RequesterLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// limiterKey buckets token-authenticated callers by uid. Everyone else,
// including callers that only send X-User-ID, is bucketed by address.
func limiterKey(r *http.Request) string {
	if uid := VerifiedRequesterFromContext(r.Context()); uid != "" {
		return "uid:" + uid
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RateLimit rejects requests over the limiter's budget with 429 and a
// Retry-After header. It must run after Requester.
func RateLimit(limiter *RequesterLimiter, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r)
			ok, wait := limiter.Reserve(key)
			if !ok {
				secs := int(wait.Seconds())
				if secs < 1 {
					secs = 1
				}
				logger.Warn("rate limit exceeded",
					logging.String("key", key),
					logging.String("path", r.URL.Path))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimited, "rate limit exceeded, please retry later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
