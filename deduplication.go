package saringan

import (
	"context"
	"sync"
)

// PendingFetch represents an in-flight backing-store fetch shared between
// callers. The owning caller publishes the outcome via Complete; every
// other caller blocks in Wait until then.
type PendingFetch struct {
	value       any
	err         error
	done        chan struct{}
	mu          sync.Mutex
	subscribers int
}

// DeduplicationTracker tracks in-flight fetches to coalesce duplicates.
// At most one fetch per key is in flight at a time; an entry never outlives
// the fetch it represents.
type DeduplicationTracker struct {
	mu      sync.Mutex
	pending map[string]*PendingFetch

	total  uint64
	joined uint64
}

// NewDeduplicationTracker returns an in-memory de-duplication tracker.
func NewDeduplicationTracker() *DeduplicationTracker {
	return &DeduplicationTracker{
		pending: make(map[string]*PendingFetch),
	}
}

// GetOrCreateEntry returns an existing pending fetch (owner=false) or
// registers a new one (owner=true). Check and registration are atomic, so
// two concurrent first-callers can never both own the fetch.
func (dt *DeduplicationTracker) GetOrCreateEntry(key string) (*PendingFetch, bool) {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	dt.total++

	if pf, exists := dt.pending[key]; exists {
		pf.mu.Lock()
		pf.subscribers++
		pf.mu.Unlock()
		dt.joined++
		return pf, false
	}

	pf := &PendingFetch{
		done:        make(chan struct{}),
		subscribers: 1,
	}
	dt.pending[key] = pf
	return pf, true
}

// Complete publishes the fetch outcome to all subscribers and removes the
// entry. Removal happens immediately, success or failure, so a later call
// for the same key starts a fresh fetch rather than reusing settled state.
func (dt *DeduplicationTracker) Complete(key string, value any, err error) {
	dt.mu.Lock()
	pf, exists := dt.pending[key]
	if exists {
		delete(dt.pending, key)
	}
	dt.mu.Unlock()

	if !exists {
		return
	}

	pf.mu.Lock()
	pf.value = value
	pf.err = err
	pf.mu.Unlock()
	close(pf.done)
}

// Wait blocks until the owning fetch completes or the caller's context is
// done. Abandoning the wait does not cancel the fetch; remaining
// subscribers still receive its outcome.
func (pf *PendingFetch) Wait(ctx context.Context) (any, error) {
	select {
	case <-pf.done:
		pf.mu.Lock()
		value := pf.value
		err := pf.err
		pf.mu.Unlock()
		return value, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribers returns the number of callers sharing this fetch, including
// the owner.
func (pf *PendingFetch) Subscribers() int {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.subscribers
}

// Stats returns total calls, the count that joined an existing fetch, and
// the deduplication rate.
func (dt *DeduplicationTracker) Stats() DedupStats {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	stats := DedupStats{
		Total:        dt.total,
		Deduplicated: dt.joined,
	}
	if dt.total > 0 {
		stats.Rate = float64(dt.joined) / float64(dt.total)
	}
	return stats
}
