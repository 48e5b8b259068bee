package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces requests to remote scorer endpoints, one token bucket per host
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLimiter creates a limiter applying requestsPerSecond and burst to every host.
// A non-positive rate disables limiting; a non-positive burst means 5.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   toLimit(requestsPerSecond),
		burst:   burstOr(burst, 5),
	}
}

// SetHostRate overrides the pace for one host, e.g. a local Ollama that needs none
func (l *Limiter) SetHostRate(host string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets[host] = rate.NewLimiter(toLimit(requestsPerSecond), burstOr(burst, l.burst))
}

// Wait blocks until a request to endpoint may proceed or ctx ends
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	host, err := endpointHost(endpoint)
	if err != nil {
		return err
	}
	return l.bucket(host).Wait(ctx)
}

func (l *Limiter) bucket(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[host]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[host] = b
	}
	return b
}

func toLimit(requestsPerSecond float64) rate.Limit {
	if requestsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(requestsPerSecond)
}

func burstOr(burst, fallback int) int {
	if burst <= 0 {
		return fallback
	}
	return burst
}

// endpointHost extracts the host an endpoint URL is limited under
func endpointHost(endpoint string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	return parsed.Host, nil
}
