package transport

import (
	"math"
	"math/rand"
	"time"

	"github.com/teracrafts/pulsekit-go/types"
)

// RetryPolicy controls how failed HTTP calls are retried. It is stateless
// and owned by a single client instance, so two clients never interfere
// with each other's retry behavior.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            time.Duration
}

// DefaultRetryPolicy returns the default retry policy.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            100 * time.Millisecond,
	}
}

// Backoff calculates the delay before the given retry attempt (1-based).
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	exponentialDelay := float64(p.BaseDelay) * math.Pow(p.BackoffMultiplier, float64(attempt-1))

	delay := time.Duration(math.Min(exponentialDelay, float64(p.MaxDelay)))

	jitter := time.Duration(rand.Float64() * float64(p.Jitter))

	return delay + jitter
}

// Retryable reports whether a failed call may be retried: network-level
// failures, timeouts, HTTP 429 and HTTP >= 500. Other 4xx responses and
// malformed requests are permanent.
func (p *RetryPolicy) Retryable(err error) bool {
	return types.Recoverable(err)
}
