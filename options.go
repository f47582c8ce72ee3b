package saringan

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// WithClock sets the clock used for TTL, window and sweep arithmetic.
// Inject a fake clock (e.g. clockwork.NewFakeClock) for deterministic tests.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithCacheCapacity sets the maximum number of cache entries.
func WithCacheCapacity(n int) Option {
	return func(c *Coordinator) {
		c.cacheCapacity = n
	}
}

// WithTTL sets the fixed time-to-live applied to cache entries at insertion.
func WithTTL(d time.Duration) Option {
	return func(c *Coordinator) {
		c.ttl = d
	}
}

// WithCache sets a custom cache implementation, overriding capacity and TTL
// options.
func WithCache(cache Cache) Option {
	return func(c *Coordinator) {
		c.cache = cache
	}
}

// WithRateLimit configures the sliding-window limiter. Zero fields keep
// their defaults (5 per 10s burst, 10 per 60s sustained).
func WithRateLimit(config RateLimitConfig) Option {
	return func(c *Coordinator) {
		c.rateLimitConfig = config
	}
}

// WithSweepIntervals sets the cache expiry and limiter cleanup sweep
// periods.
func WithSweepIntervals(cacheSweep, limiterSweep time.Duration) Option {
	return func(c *Coordinator) {
		c.cacheSweepInterval = cacheSweep
		c.limiterSweepInterval = limiterSweep
	}
}

// WithMetrics enables Prometheus metrics collection on the default
// registerer.
func WithMetrics() Option {
	return func(c *Coordinator) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Coordinator) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Coordinator) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Coordinator) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Coordinator) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Coordinator) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the coordinator configuration and returns
// an error if invalid.
func (c *Coordinator) ValidateConfiguration() error {
	var errs []string

	errs = append(errs, c.validateFetcherConfig()...)
	errs = append(errs, c.validateCacheConfig()...)
	errs = append(errs, c.validateRateLimitConfig()...)
	errs = append(errs, c.validateSweepConfig()...)
	errs = append(errs, c.validateDebugConfig()...)
	errs = append(errs, c.validateExtremeValues()...)

	if len(errs) > 0 {
		return &CoordinatorError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errs),
		}
	}

	return nil
}

func (c *Coordinator) validateFetcherConfig() []string {
	var errs []string

	if c.fetcher == nil {
		errs = append(errs, "fetcher cannot be nil")
	}

	return errs
}

func (c *Coordinator) validateCacheConfig() []string {
	var errs []string

	if c.cacheCapacity <= 0 {
		errs = append(errs, "cache capacity must be positive")
	}

	if c.ttl <= 0 {
		errs = append(errs, "ttl must be positive")
	}

	return errs
}

func (c *Coordinator) validateRateLimitConfig() []string {
	var errs []string

	cfg := c.rateLimitConfig
	if cfg.BurstLimit < 0 {
		errs = append(errs, "rate limit burst limit must be non-negative")
	}
	if cfg.SustainedLimit < 0 {
		errs = append(errs, "rate limit sustained limit must be non-negative")
	}
	if cfg.BurstWindow < 0 || cfg.SustainedWindow < 0 {
		errs = append(errs, "rate limit windows must be non-negative")
	}
	if cfg.BurstWindow > 0 && cfg.SustainedWindow > 0 && cfg.BurstWindow > cfg.SustainedWindow {
		errs = append(errs, "burst window must not exceed sustained window")
	}

	return errs
}

func (c *Coordinator) validateSweepConfig() []string {
	var errs []string

	if c.cacheSweepInterval <= 0 {
		errs = append(errs, "cache sweep interval must be positive")
	}

	if c.limiterSweepInterval <= 0 {
		errs = append(errs, "limiter sweep interval must be positive")
	}

	return errs
}

func (c *Coordinator) validateDebugConfig() []string {
	var errs []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errs = append(errs, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			errs = append(errs, "logger must be set when debug is enabled")
		}
	}

	return errs
}

func (c *Coordinator) validateExtremeValues() []string {
	var errs []string

	if c.cacheCapacity > 10_000_000 {
		errs = append(errs, "cache capacity > 10M may cause memory issues")
	}

	if c.ttl > 24*time.Hour {
		errs = append(errs, "ttl > 24h may cause stale data issues")
	}

	if c.cacheSweepInterval > 0 && c.cacheSweepInterval < 100*time.Millisecond {
		errs = append(errs, "cache sweep interval < 100ms may cause excessive CPU usage")
	}

	return errs
}
