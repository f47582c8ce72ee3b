// Package saringan guards a slow backing store under concurrent load by
// composing three runtime primitives behind a single read-through operation:
//
//   - Capacity-bounded in‑memory cache with LRU eviction and per-entry TTL
//   - Request de‑duplication (merges concurrent fetches for the same key)
//   - Per-client admission control with dual sliding windows (burst + sustained)
//   - Periodic maintenance sweeps for cache expiry and limiter cleanup
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - No ambient state: every Coordinator owns its cache, limiter and tracker
//   - Deterministic tests via an injectable clock
//   - Safe concurrent use of a single *Coordinator instance
//
// Typical usage:
//
//	coord := saringan.New(store,
//	    saringan.WithCacheCapacity(1024),
//	    saringan.WithTTL(time.Minute),
//	    saringan.WithRateLimit(saringan.RateLimitConfig{}),
//	    saringan.WithMetrics(),
//	)
//	defer coord.Close()
//	res, err := coord.ReadThrough(ctx, "user:42", clientID)
//
// The backing store is modeled as a single Fetch operation; retries, HTTP
// routing and response shaping belong to the caller. The library avoids
// opinionated logging: provide a Logger (e.g. via WithSimpleLogger) + enable
// debug flags selectively (WithDebug / WithDebugConfig) for insight without noise.
package saringan
