package http

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minLimiterIdle bounds how often the limiter map is pruned.
const minLimiterIdle = time.Minute

// clientLimiter hands out one token bucket per client address. Buckets
// idle long enough to have refilled are dropped, since a fresh bucket is
// equivalent.
type clientLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastPrune time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// newClientLimiter returns a limiter allowing perSecond requests per client
// with the given burst. A zero rate disables limiting.
func newClientLimiter(perSecond float64, burst int) *clientLimiter {
	if burst < 1 {
		burst = 1
	}
	l := &clientLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    minLimiterIdle,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	if perSecond > 0 {
		if refill := time.Duration(float64(burst) / perSecond * float64(time.Second)); refill > l.idle {
			l.idle = refill
		}
	}
	return l
}

func (l *clientLimiter) allow(key string) bool {
	if l.limit <= 0 {
		return true
	}

	now := l.now()
	l.mu.Lock()
	if now.Sub(l.lastPrune) >= minLimiterIdle {
		l.prune(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.lim.AllowN(now, 1)
}

// prune drops buckets unused for longer than the refill window. l.mu must
// be held.
func (l *clientLimiter) prune(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
		}
	}
	l.lastPrune = now
}

func (l *clientLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// limitKey identifies the caller by its network address. The declared
// source is chosen by the client and is not used.
func limitKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
