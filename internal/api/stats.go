package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"

	"ciceronego/pkg/tracker"
)

// StatsHandler exposes provider usage statistics and process diagnostics.
type StatsHandler struct {
	tracker *tracker.Tracker
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t}
}

// ProviderStatsDTO mirrors tracker.Stats with a derived hit rate.
type ProviderStatsDTO struct {
	CacheHits    int64 `json:"cache_hits"`
	CacheMisses  int64 `json:"cache_misses"`
	APISuccess   int64 `json:"api_success"`
	APIFailures  int64 `json:"api_errors"`
	AvgLatencyMs int64 `json:"avg_latency_ms"`
	HitRate      int64 `json:"hit_rate"`
}

// ProcessStats reports memory usage of this process.
type ProcessStats struct {
	MemoryMB   uint64 `json:"memory_mb"`
	Goroutines int    `json:"goroutines"`
}

// StatsResponse is the /api/stats payload.
type StatsResponse struct {
	Process   ProcessStats                `json:"process"`
	Providers map[string]ProviderStatsDTO `json:"providers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	resp := StatsResponse{
		Providers: make(map[string]ProviderStatsDTO, len(snapshot)),
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	resp.Process = ProcessStats{
		MemoryMB:   mem.Alloc / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}

	for provider, s := range snapshot {
		dto := ProviderStatsDTO{
			CacheHits:    s.CacheHits,
			CacheMisses:  s.CacheMisses,
			APISuccess:   s.APISuccess,
			APIFailures:  s.APIFailures,
			AvgLatencyMs: s.AvgLatencyMs,
		}
		if total := s.CacheHits + s.CacheMisses; total > 0 {
			dto.HitRate = s.CacheHits * 100 / total
		}
		resp.Providers[provider] = dto
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode stats", "error", err)
	}
}
