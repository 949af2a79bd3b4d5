// Package tracker collects usage statistics per remote provider.
package tracker

import (
	"sync"
	"sync/atomic"
	"time"
)

// latencyWindow is the number of recent call durations kept per provider.
const latencyWindow = 10

// Tracker tracks usage statistics per provider.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*providerStats
}

// providerStats holds metrics for a specific provider.
// Counter fields are accessed atomically; latencies under mu.
type providerStats struct {
	cacheHits   int64
	cacheMisses int64
	apiSuccess  int64
	apiFailures int64

	latMu     sync.Mutex
	latencies []time.Duration
}

// Stats is a read-only snapshot of one provider's metrics.
type Stats struct {
	CacheHits    int64         `json:"cache_hits"`
	CacheMisses  int64         `json:"cache_misses"`
	APISuccess   int64         `json:"api_success"`
	APIFailures  int64         `json:"api_failures"`
	AvgLatencyMs int64         `json:"avg_latency_ms"`
	AvgLatency   time.Duration `json:"-"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*providerStats),
	}
}

func (t *Tracker) getStats(provider string) *providerStats {
	t.mu.RLock()
	s, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[provider]; ok {
		return s
	}
	s = &providerStats{}
	t.stats[provider] = s
	return s
}

// TrackCacheHit increments the cache hit counter.
func (t *Tracker) TrackCacheHit(provider string) {
	atomic.AddInt64(&t.getStats(provider).cacheHits, 1)
}

// TrackCacheMiss increments the cache miss counter.
func (t *Tracker) TrackCacheMiss(provider string) {
	atomic.AddInt64(&t.getStats(provider).cacheMisses, 1)
}

// TrackAPISuccess increments the success counter.
func (t *Tracker) TrackAPISuccess(provider string) {
	atomic.AddInt64(&t.getStats(provider).apiSuccess, 1)
}

// TrackAPIFailure increments the failure counter.
func (t *Tracker) TrackAPIFailure(provider string) {
	atomic.AddInt64(&t.getStats(provider).apiFailures, 1)
}

// TrackLatency records the duration of one remote call, keeping a rolling
// window per provider.
func (t *Tracker) TrackLatency(provider string, d time.Duration) {
	s := t.getStats(provider)
	s.latMu.Lock()
	defer s.latMu.Unlock()

	s.latencies = append(s.latencies, d)
	if len(s.latencies) > latencyWindow {
		s.latencies = s.latencies[1:]
	}
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]Stats, len(t.stats))
	for k, v := range t.stats {
		s := Stats{
			CacheHits:   atomic.LoadInt64(&v.cacheHits),
			CacheMisses: atomic.LoadInt64(&v.cacheMisses),
			APISuccess:  atomic.LoadInt64(&v.apiSuccess),
			APIFailures: atomic.LoadInt64(&v.apiFailures),
		}

		v.latMu.Lock()
		if len(v.latencies) > 0 {
			var sum time.Duration
			for _, d := range v.latencies {
				sum += d
			}
			s.AvgLatency = sum / time.Duration(len(v.latencies))
			s.AvgLatencyMs = s.AvgLatency.Milliseconds()
		}
		v.latMu.Unlock()

		result[k] = s
	}
	return result
}
