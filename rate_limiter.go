package saringan

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Default sliding-window limits: 5 requests per 10s burst window and
// 10 requests per 60s sustained window. Both must pass for admission.
const (
	DefaultBurstLimit      = 5
	DefaultBurstWindow     = 10 * time.Second
	DefaultSustainedLimit  = 10
	DefaultSustainedWindow = 60 * time.Second
)

// RateWindow holds the recent request timestamps for one client, oldest
// first. Created lazily on the client's first request and dropped by
// Cleanup once the client has been idle past the sustained window.
type RateWindow struct {
	burst     []time.Time
	sustained []time.Time
}

// SlidingWindowLimiter is a per-client admission controller using two
// independent sliding windows. A single long window cannot distinguish a
// legitimate short burst from sustained abuse; a single short window cannot
// bound sustained-but-moderate abuse. It is safe for concurrent use.
type SlidingWindowLimiter struct {
	mu      sync.Mutex
	clients map[string]*RateWindow

	config RateLimitConfig
	clock  clockwork.Clock
}

// NewSlidingWindowLimiter creates a limiter, filling zero config values
// with defaults.
func NewSlidingWindowLimiter(config RateLimitConfig, clock clockwork.Clock) *SlidingWindowLimiter {
	if config.BurstLimit == 0 {
		config.BurstLimit = DefaultBurstLimit
	}
	if config.BurstWindow == 0 {
		config.BurstWindow = DefaultBurstWindow
	}
	if config.SustainedLimit == 0 {
		config.SustainedLimit = DefaultSustainedLimit
	}
	if config.SustainedWindow == 0 {
		config.SustainedWindow = DefaultSustainedWindow
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SlidingWindowLimiter{
		clients: make(map[string]*RateWindow),
		config:  config,
		clock:   clock,
	}
}

// Allow reports whether clientID may proceed. Both windows are pruned to
// timestamps still inside them; if either is at its limit the request is
// denied and NOT recorded, so a denied client cannot amplify its own
// lockout. Otherwise now is appended to both windows.
func (rl *SlidingWindowLimiter) Allow(clientID string) bool {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[clientID]
	if !ok {
		w = &RateWindow{}
		rl.clients[clientID] = w
	}

	w.burst = pruneWindow(w.burst, now.Add(-rl.config.BurstWindow))
	w.sustained = pruneWindow(w.sustained, now.Add(-rl.config.SustainedWindow))

	if len(w.burst) >= rl.config.BurstLimit || len(w.sustained) >= rl.config.SustainedLimit {
		return false
	}

	w.burst = append(w.burst, now)
	w.sustained = append(w.sustained, now)
	return true
}

// Cleanup removes every client whose most recent timestamp is older than
// the sustained window and returns the number removed. Invoked periodically
// by the Coordinator to bound memory for a rotating client population.
func (rl *SlidingWindowLimiter) Cleanup(now time.Time) int {
	cutoff := now.Add(-rl.config.SustainedWindow)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for id, w := range rl.clients {
		if windowIdle(w.burst, cutoff) && windowIdle(w.sustained, cutoff) {
			delete(rl.clients, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of clients currently tracked.
func (rl *SlidingWindowLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// pruneWindow drops timestamps at or before cutoff. Timestamps are ordered,
// so only the prefix is scanned.
func pruneWindow(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}

// windowIdle reports whether the newest timestamp is at or before cutoff.
func windowIdle(ts []time.Time, cutoff time.Time) bool {
	if len(ts) == 0 {
		return true
	}
	return !ts[len(ts)-1].After(cutoff)
}
