package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter implements per-client rate limiting
type Limiter struct {
	limiters     map[string]*clientLimiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
	now          func() time.Time
}

// NewLimiter creates a new rate limiter
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	return &Limiter{
		limiters:     make(map[string]*clientLimiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
		now:          time.Now,
	}
}

// Wait blocks until the client may proceed or ctx ends
func (l *Limiter) Wait(ctx context.Context, client string) error {
	return l.getLimiter(client).Wait(ctx)
}

// Allow reports whether the client may proceed now, consuming a token if so
func (l *Limiter) Allow(client string) bool {
	return l.getLimiter(client).Allow()
}

func (l *Limiter) getLimiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	cl, exists := l.limiters[client]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.defaultRate, l.defaultBurst)}
		l.limiters[client] = cl
	}
	cl.lastSeen = l.now()
	return cl.limiter
}

// Prune forgets clients idle for longer than idle and returns how many were dropped
func (l *Limiter) Prune(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	n := 0
	for client, cl := range l.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(l.limiters, client)
			n++
		}
	}
	return n
}

// Clients returns the number of tracked clients
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
