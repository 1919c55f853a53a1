package google

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/trellis/internal/logger"
)

// ServiceType identifies a Google API service for rate limiting purposes.
type ServiceType string

const (
	// ServiceStorage is the Cloud Storage JSON API.
	ServiceStorage ServiceType = "storage"
	// ServicePubSub is the Pub/Sub API.
	ServicePubSub ServiceType = "pubsub"
)

// RateLimitConfig holds rate limiting configuration for a service.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimits provides conservative defaults for each Google service.
var DefaultRateLimits = map[ServiceType]RateLimitConfig{
	ServiceStorage: {RequestsPerSecond: 8.0, BurstSize: 10},
	ServicePubSub:  {RequestsPerSecond: 20.0, BurstSize: 50},
}

// DefaultMaxAttempts bounds the retries of Do.
const DefaultMaxAttempts = 3

// RateLimiter provides rate limiting for Google API requests.
// It uses a token bucket algorithm with backoff for 429 and 5xx responses.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	service ServiceType

	// backoff is the first retry delay for server errors; it doubles per attempt.
	backoff time.Duration
}

// NewRateLimiter creates a new rate limiter for the specified service.
func NewRateLimiter(service ServiceType) *RateLimiter {
	cfg, ok := DefaultRateLimits[service]
	if !ok {
		// Default fallback
		cfg = RateLimitConfig{RequestsPerSecond: 5.0, BurstSize: 10}
	}
	r := NewRateLimiterWithConfig(cfg)
	r.service = service
	return r
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		backoff: time.Second,
	}
}

// SetBackoff changes the initial retry delay for server errors.
func (r *RateLimiter) SetBackoff(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backoff = d
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError records a rate limit error and sets a backoff period.
// Call this when receiving a 429 response from Google APIs.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = r.backoff
	}
	r.retryAt = time.Now().Add(retryAfter)
}

// Allow checks if a request can be made immediately without blocking.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}

	return r.limiter.Allow()
}

// Do runs call under the rate limit, retrying rate limited and server
// errors up to maxAttempts times. Other errors are returned at once.
func (r *RateLimiter) Do(ctx context.Context, maxAttempts int, call func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	r.mu.Lock()
	delay := r.backoff
	r.mu.Unlock()

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if werr := r.Wait(ctx); werr != nil {
			return werr
		}

		err = call()
		if err == nil || !IsRetryable(err) || attempt == maxAttempts {
			return err
		}

		if IsRateLimited(err) {
			r.RecordRateLimitError(retryAfter(err))
			logger.Warn("%s rate limited, attempt %d of %d", r.service, attempt, maxAttempts)
			continue
		}

		logger.Warn("%s request failed, retrying in %s: %v", r.service, delay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

// retryAfter reads the Retry-After header (seconds) of a 429 response.
func retryAfter(err error) time.Duration {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0
	}
	secs, perr := strconv.Atoi(gerr.Header.Get("Retry-After"))
	if perr != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
