package domain

// SyncMetrics is a snapshot of balance-synchronization health for the
// GET /v1/metrics/sync endpoint.
type SyncMetrics struct {
	TotalRequests       int64   `json:"total_requests"`
	BalanceConflicts    int64   `json:"balance_conflicts"`
	ConsistencyFailures int64   `json:"consistency_failures"`
	ErrorRate           float64 `json:"error_rate"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
}
