package tracker

import (
	"sync"
	"testing"
	"time"
)

func TestTracker_Counters(t *testing.T) {
	tr := New()

	tr.TrackAPISuccess("gemini")
	tr.TrackAPISuccess("gemini")
	tr.TrackAPIFailure("gemini")
	tr.TrackCacheHit("wikipedia")
	tr.TrackCacheMiss("wikipedia")

	snap := tr.Snapshot()

	if snap["gemini"].APISuccess != 2 {
		t.Errorf("expected 2 successes, got %d", snap["gemini"].APISuccess)
	}
	if snap["gemini"].APIFailures != 1 {
		t.Errorf("expected 1 failure, got %d", snap["gemini"].APIFailures)
	}
	if snap["wikipedia"].CacheHits != 1 || snap["wikipedia"].CacheMisses != 1 {
		t.Error("expected one cache hit and one miss for wikipedia")
	}
}

func TestTracker_LatencyWindow(t *testing.T) {
	tr := New()

	// More entries than the window; only the last 10 should count.
	for i := 0; i < 20; i++ {
		tr.TrackLatency("gemini", 100*time.Millisecond)
	}
	tr.TrackLatency("gemini", 100*time.Millisecond)

	snap := tr.Snapshot()
	if snap["gemini"].AvgLatency != 100*time.Millisecond {
		t.Errorf("expected 100ms average, got %v", snap["gemini"].AvgLatency)
	}
	if snap["gemini"].AvgLatencyMs != 100 {
		t.Errorf("expected 100ms average, got %dms", snap["gemini"].AvgLatencyMs)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.TrackAPISuccess("gemini")
			tr.TrackLatency("gemini", time.Millisecond)
		}()
	}
	wg.Wait()

	if got := tr.Snapshot()["gemini"].APISuccess; got != 50 {
		t.Errorf("expected 50 successes, got %d", got)
	}
}
