package saringan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestDeduplicationTrackerOwnerAndJoin(t *testing.T) {
	tracker := NewDeduplicationTracker()

	pending, isOwner := tracker.GetOrCreateEntry("key")
	if !isOwner {
		t.Fatal("First caller should own the fetch")
	}

	joined, isOwner2 := tracker.GetOrCreateEntry("key")
	if isOwner2 {
		t.Fatal("Second caller should join, not own")
	}
	if joined != pending {
		t.Error("Joining caller should share the owner's entry")
	}
	if joined.Subscribers() != 2 {
		t.Errorf("Expected 2 subscribers, got %d", joined.Subscribers())
	}

	tracker.Complete("key", "result", nil)

	value, err := joined.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if value != "result" {
		t.Errorf("Expected 'result', got %v", value)
	}
}

func TestDeduplicationTrackerEntryRemovedOnComplete(t *testing.T) {
	tracker := NewDeduplicationTracker()

	tracker.GetOrCreateEntry("key")
	tracker.Complete("key", "result", nil)

	// The settled entry must not be reused; a fresh call owns a new fetch.
	_, isOwner := tracker.GetOrCreateEntry("key")
	if !isOwner {
		t.Error("Caller after settlement should own a fresh fetch")
	}
}

func TestDeduplicationTrackerConcurrentSingleFetch(t *testing.T) {
	tracker := NewDeduplicationTracker()

	const numCallers = 10
	var fetches int32
	var wg, registered sync.WaitGroup
	registered.Add(numCallers)
	results := make([]any, numCallers)
	errs := make([]error, numCallers)

	for i := 0; i < numCallers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			pending, isOwner := tracker.GetOrCreateEntry("key")
			registered.Done()
			if isOwner {
				atomic.AddInt32(&fetches, 1)
				registered.Wait() // settle only after every caller registered
				tracker.Complete("key", "shared", nil)
				results[i], errs[i] = "shared", nil
				return
			}
			results[i], errs[i] = pending.Wait(context.Background())
		}(i)
	}

	wg.Wait()

	if fetches != 1 {
		t.Errorf("Expected exactly 1 fetch, got %d", fetches)
	}
	for i := 0; i < numCallers; i++ {
		if errs[i] != nil {
			t.Errorf("Caller %d got error: %v", i, errs[i])
		}
		if results[i] != "shared" {
			t.Errorf("Caller %d got %v, expected identical shared result", i, results[i])
		}
	}

	stats := tracker.Stats()
	if stats.Total != numCallers {
		t.Errorf("Expected %d total calls, got %d", numCallers, stats.Total)
	}
	if stats.Deduplicated != numCallers-1 {
		t.Errorf("Expected %d deduplicated, got %d", numCallers-1, stats.Deduplicated)
	}
}

func TestDeduplicationTrackerFailurePropagation(t *testing.T) {
	tracker := NewDeduplicationTracker()

	fetchErr := errors.New("backing store unavailable")

	_, isOwner := tracker.GetOrCreateEntry("key")
	if !isOwner {
		t.Fatal("First caller should own the fetch")
	}

	var wg sync.WaitGroup
	waiterErrs := make([]error, 3)
	for i := 0; i < 3; i++ {
		pending, owner := tracker.GetOrCreateEntry("key")
		if owner {
			t.Fatal("Joining caller must not own the fetch")
		}
		wg.Add(1)
		go func(i int, pf *PendingFetch) {
			defer wg.Done()
			_, waiterErrs[i] = pf.Wait(context.Background())
		}(i, pending)
	}

	tracker.Complete("key", nil, fetchErr)
	wg.Wait()

	for i, err := range waiterErrs {
		if !errors.Is(err, fetchErr) {
			t.Errorf("Waiter %d expected shared failure, got %v", i, err)
		}
	}

	// The failed fetch released its slot; a later call may retry fresh.
	_, isOwner = tracker.GetOrCreateEntry("key")
	if !isOwner {
		t.Error("Caller after failure should own a fresh fetch")
	}
}

func TestDeduplicationTrackerWaitHonorsContext(t *testing.T) {
	tracker := NewDeduplicationTracker()

	tracker.GetOrCreateEntry("key")
	pending, _ := tracker.GetOrCreateEntry("key")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := pending.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	// Abandoning the wait does not abandon the fetch for other subscribers.
	tracker.Complete("key", "late", nil)
	value, err := pending.Wait(context.Background())
	if err != nil || value != "late" {
		t.Errorf("Expected late result for remaining subscriber, got %v / %v", value, err)
	}
}

func TestDeduplicationTrackerStatsZero(t *testing.T) {
	tracker := NewDeduplicationTracker()

	stats := tracker.Stats()
	if stats.Total != 0 || stats.Deduplicated != 0 || stats.Rate != 0 {
		t.Errorf("Expected zero stats, got %+v", stats)
	}
}

func TestDeduplicationTrackerDistinctKeys(t *testing.T) {
	tracker := NewDeduplicationTracker()

	_, ownerA := tracker.GetOrCreateEntry("a")
	_, ownerB := tracker.GetOrCreateEntry("b")

	if !ownerA || !ownerB {
		t.Error("Distinct keys must each get their own fetch")
	}

	stats := tracker.Stats()
	if stats.Deduplicated != 0 {
		t.Errorf("Expected no deduplication across distinct keys, got %d", stats.Deduplicated)
	}
}

func BenchmarkDeduplicationTrackerGetOrCreate(b *testing.B) {
	tracker := NewDeduplicationTracker()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tracker.GetOrCreateEntry("key")
		tracker.Complete("key", nil, nil)
	}
}
