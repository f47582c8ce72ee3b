package saringan

import (
	"encoding/json"
	"strings"
)

// CacheStats is a point-in-time snapshot of cache counters.
type CacheStats struct {
	Size         int     `json:"size"`
	MaxSize      int     `json:"maxSize"`
	Hits         uint64  `json:"hits"`
	Misses       uint64  `json:"misses"`
	HitRate      float64 `json:"hitRate"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}

// DedupStats is a point-in-time snapshot of deduplication counters.
type DedupStats struct {
	Total        uint64  `json:"total"`
	Deduplicated uint64  `json:"deduplicated"`
	Rate         float64 `json:"rate"`
}

// StatsSnapshot combines cache and deduplication statistics for the stats
// endpoint collaborator. The rate limiter keeps no exported counters; its
// tracked-client count is surfaced as a metrics gauge only.
type StatsSnapshot struct {
	Cache CacheStats `json:"cache"`
	Dedup DedupStats `json:"dedup"`
}

// String encodes the snapshot as JSON.
func (s StatsSnapshot) String() string {
	sb := &strings.Builder{}
	if err := json.NewEncoder(sb).Encode(s); err != nil {
		return "{}"
	}
	return sb.String()
}
