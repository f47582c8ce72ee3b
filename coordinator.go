package saringan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Default maintenance and cache settings, overridable via options.
const (
	DefaultCacheCapacity        = 1024
	DefaultTTL                  = 60 * time.Second
	DefaultCacheSweepInterval   = 10 * time.Second
	DefaultLimiterSweepInterval = 2 * time.Minute
)

// Coordinator orchestrates admission control, the cache and fetch
// de-duplication around a single logical read-through operation, and runs
// periodic maintenance sweeps for the lifetime of the process. It is safe
// for concurrent use; no lock is held across a backing store fetch.
//
// Coordinator owns its internal goroutines. Call Close to stop them.
type Coordinator struct {
	fetcher Fetcher
	clock   clockwork.Clock

	cache   Cache
	limiter *SlidingWindowLimiter
	dedup   *DeduplicationTracker

	cacheCapacity        int
	ttl                  time.Duration
	rateLimitConfig      RateLimitConfig
	cacheSweepInterval   time.Duration
	limiterSweepInterval time.Duration

	metrics *MetricsCollector
	logger  Logger
	debug   *DebugConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	validationError error
}

// New constructs a Coordinator for the given backing store using the
// provided functional options and starts its maintenance sweeps. A best
// effort validation is performed; call IsValid / ValidationError for errors.
func New(fetcher Fetcher, options ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		fetcher:              fetcher,
		cacheCapacity:        DefaultCacheCapacity,
		ttl:                  DefaultTTL,
		cacheSweepInterval:   DefaultCacheSweepInterval,
		limiterSweepInterval: DefaultLimiterSweepInterval,
		debug:                DefaultDebugConfig(),
		ctx:                  ctx,
		cancel:               cancel,
	}

	for _, option := range options {
		option(c)
	}

	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.cache == nil {
		c.cache = NewLRUCache(c.cacheCapacity, c.ttl, c.clock)
	}
	if c.limiter == nil {
		c.limiter = NewSlidingWindowLimiter(c.rateLimitConfig, c.clock)
	}
	if c.dedup == nil {
		c.dedup = NewDeduplicationTracker()
	}

	if err := c.ValidateConfiguration(); err != nil {
		c.validationError = err
	}

	if c.cacheSweepInterval > 0 {
		c.wg.Add(1)
		go c.cacheSweepLoop()
	}
	if c.limiterSweepInterval > 0 {
		c.wg.Add(1)
		go c.limiterSweepLoop()
	}

	return c
}

// ReadThrough serves one logical read for clientID: admission check, cache
// lookup, then a de-duplicated backing store fetch on miss. Denials are
// terminal and never reach the cache. A successful fetch is stored with a
// fresh TTL; a caller that joined another request's fetch returns its
// shared outcome with Cached=false.
func (c *Coordinator) ReadThrough(ctx context.Context, key, clientID string) (Result, error) {
	if c.ctx.Err() != nil {
		return Result{}, ErrClosed
	}

	start := c.clock.Now()

	var requestID string
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}

	if !c.limiter.Allow(clientID) {
		if c.debug != nil && c.debug.Enabled && c.debug.LogAdmission && c.logger != nil {
			c.logger.Warn("Rate limit exceeded", "requestID", requestID, "clientID", clientID)
		}

		if c.metrics != nil {
			c.metrics.RecordRateLimited()
			c.metrics.RecordRequest(OutcomeDenied, c.clock.Since(start))
		}
		return Result{}, c.deniedError(clientID, requestID, start)
	}

	if value, found := c.cache.Get(key); found {
		if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
			c.logger.Debug("Cache hit", "requestID", requestID, "key", key)
		}

		if c.metrics != nil {
			c.metrics.RecordCacheHit()
			c.metrics.RecordRequest(OutcomeHit, c.clock.Since(start))
		}
		return Result{Value: value, Cached: true}, nil
	}

	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}

	if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
		c.logger.Debug("Cache miss", "requestID", requestID, "key", key)
	}

	pending, isOwner := c.dedup.GetOrCreateEntry(key)

	if !isOwner {
		if c.debug != nil && c.debug.Enabled && c.debug.LogDedup && c.logger != nil {
			c.logger.Debug("Joining in-flight fetch", "requestID", requestID, "key", key)
		}

		value, err := pending.Wait(ctx)
		if c.metrics != nil {
			c.metrics.RecordDeduplicationHit()
			outcome := OutcomeJoined
			if err != nil {
				outcome = OutcomeError
			}
			c.metrics.RecordRequest(outcome, c.clock.Since(start))
		}
		if err != nil {
			return Result{}, err
		}
		return Result{Value: value}, nil
	}

	if c.debug != nil && c.debug.Enabled && c.debug.LogDedup && c.logger != nil {
		c.logger.Debug("Starting fetch", "requestID", requestID, "key", key)
	}

	if c.metrics != nil {
		c.metrics.RecordFetchStart()
	}

	fetchStart := c.clock.Now()
	value, err := c.fetcher.Fetch(ctx, key)
	latency := c.clock.Since(fetchStart)

	if c.metrics != nil {
		c.metrics.RecordFetchEnd(latency)
	}

	if err != nil {
		werr := c.fetchError(err, key, clientID, requestID, start)
		// Release the pending slot even on failure so a later call retries fresh.
		c.dedup.Complete(key, nil, werr)

		if c.debug != nil && c.debug.Enabled && c.debug.LogDedup && c.logger != nil {
			c.logger.Warn("Fetch failed", "requestID", requestID, "key", key, "error", werr.Error())
		}

		if c.metrics != nil {
			if IsNotFound(werr) {
				c.metrics.RecordError(ErrorTypeNotFound)
				c.metrics.RecordRequest(OutcomeNotFound, c.clock.Since(start))
			} else {
				c.metrics.RecordError(ErrorTypeFetch)
				c.metrics.RecordRequest(OutcomeError, c.clock.Since(start))
			}
		}
		return Result{}, werr
	}

	c.cache.Put(key, value)
	c.cache.RecordFetchLatency(latency)
	c.dedup.Complete(key, value, nil)

	if c.metrics != nil {
		c.metrics.RecordCacheSize(c.cache.Len())
		c.metrics.RecordRequest(OutcomeMiss, c.clock.Since(start))
	}

	if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
		c.logger.Debug("Value cached", "requestID", requestID, "key", key, "latency", latency)
	}

	return Result{Value: value}, nil
}

// InvalidateAll clears the cache and resets its statistics.
func (c *Coordinator) InvalidateAll() {
	c.cache.Clear()

	if c.metrics != nil {
		c.metrics.RecordCacheSize(0)
	}

	if c.debug != nil && c.debug.Enabled && c.debug.LogCache && c.logger != nil {
		c.logger.Info("Cache invalidated")
	}
}

// SnapshotStats returns a point-in-time snapshot of cache and
// de-duplication statistics.
func (c *Coordinator) SnapshotStats() StatsSnapshot {
	return StatsSnapshot{
		Cache: c.cache.Stats(),
		Dedup: c.dedup.Stats(),
	}
}

// Close stops the maintenance sweeps. It is safe to call multiple times;
// subsequent ReadThrough calls return ErrClosed.
func (c *Coordinator) Close() error {
	c.cancel()
	c.wg.Wait()
	return nil
}

// IsValid reports whether configuration validation passed at construction.
func (c *Coordinator) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Coordinator) ValidationError() error {
	return c.validationError
}

// cacheSweepLoop periodically evicts expired cache entries so memory does
// not grow unboundedly with low-traffic long-lived keys. The sweep uses the
// same lock discipline as foreground operations and never blocks them for
// the duration of a fetch.
func (c *Coordinator) cacheSweepLoop() {
	defer c.wg.Done()

	ticker := c.clock.NewTicker(c.cacheSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.Chan():
			now := c.clock.Now()
			removed := c.cache.EvictExpired(now)

			if c.metrics != nil {
				c.metrics.RecordCacheSize(c.cache.Len())
			}

			if removed > 0 && c.debug != nil && c.debug.Enabled && c.debug.LogSweeps && c.logger != nil {
				c.logger.Debug("Cache sweep", "removed", removed)
			}
		}
	}
}

// limiterSweepLoop periodically drops rate windows for idle clients to
// bound memory for a large or rotating client population.
func (c *Coordinator) limiterSweepLoop() {
	defer c.wg.Done()

	ticker := c.clock.NewTicker(c.limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.Chan():
			now := c.clock.Now()
			removed := c.limiter.Cleanup(now)

			if c.metrics != nil {
				c.metrics.RecordRateLimiterClients(c.limiter.Len())
			}

			if removed > 0 && c.debug != nil && c.debug.Enabled && c.debug.LogSweeps && c.logger != nil {
				c.logger.Debug("Rate limiter sweep", "removed", removed)
			}
		}
	}
}

func (c *Coordinator) deniedError(clientID, requestID string, start time.Time) *CoordinatorError {
	return &CoordinatorError{
		Type:      ErrorTypeRateLimit,
		Message:   "rate limit exceeded",
		Cause:     ErrRateLimited,
		ClientID:  clientID,
		RequestID: requestID,
		Timestamp: c.clock.Now(),
		Duration:  c.clock.Since(start),
	}
}

func (c *Coordinator) fetchError(cause error, key, clientID, requestID string, start time.Time) *CoordinatorError {
	errType := ErrorTypeFetch
	message := "backing store fetch failed"
	if errors.Is(cause, ErrNotFound) {
		errType = ErrorTypeNotFound
		message = "key not found in backing store"
	}

	return &CoordinatorError{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Key:       key,
		ClientID:  clientID,
		RequestID: requestID,
		Timestamp: c.clock.Now(),
		Duration:  c.clock.Since(start),
	}
}
