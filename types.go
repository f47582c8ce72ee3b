package saringan

import (
	"context"
	"time"
)

// Fetcher is the backing store collaborator. Fetch returns the value for a
// key or an error; a missing record must return an error matching
// ErrNotFound. Latency is externally imposed and the Coordinator never
// holds a lock across a Fetch call.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (any, error)
}

// FetcherFunc is a helper type adapting a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, key string) (any, error)

func (f FetcherFunc) Fetch(ctx context.Context, key string) (any, error) {
	return f(ctx, key)
}

// Result is the outcome of a read-through operation. Cached reports whether
// the value was served from the cache; a caller that joined an in-flight
// fetch reports false.
type Result struct {
	Value  any
	Cached bool
}

// RateLimitConfig holds sliding-window rate limiter configuration.
// Zero values are replaced with defaults by NewSlidingWindowLimiter.
type RateLimitConfig struct {
	BurstLimit      int
	BurstWindow     time.Duration
	SustainedLimit  int
	SustainedWindow time.Duration
}

// Error type constants used in CoordinatorError.Type.
const (
	ErrorTypeRateLimit  = "RateLimit"
	ErrorTypeNotFound   = "NotFound"
	ErrorTypeFetch      = "Fetch"
	ErrorTypeValidation = "Validation"
)

// CoordinatorError represents an error from the read-through core.
type CoordinatorError struct {
	Type      string
	Message   string
	Cause     error
	Key       string
	ClientID  string
	RequestID string
	Timestamp time.Time
	Duration  time.Duration
}

// Option represents a configuration option
type Option func(*Coordinator)
