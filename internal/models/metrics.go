package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot exposed to admins, a
// cheap complement to the full Prometheus scrape endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DuesComputations         uint64    `json:"dues_computations"`
	StatementsGenerated      uint64    `json:"statements_generated"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
