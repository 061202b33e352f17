package observability

import (
	"time"

	"github.com/boddenberg/shop-billing-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the billing backend.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration     *prometheus.HistogramVec
	storeErrors         *prometheus.CounterVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	balanceConflicts    *prometheus.CounterVec
	consistencyFailures *prometheus.CounterVec
	requestsTotal       *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "billd_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billd_store_errors_total",
				Help: "Total errors from ledger/balance store operations.",
			},
			[]string{"op"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billd_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billd_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		balanceConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billd_balance_conflicts_total",
				Help: "Conditional balance writes that lost a race and were rebased.",
			},
			[]string{"operation"},
		),
		consistencyFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billd_consistency_failures_total",
				Help: "Bill writes whose balance propagation failed and needs reconciliation.",
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "billd_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(op string) {
	m.storeErrors.WithLabelValues(op).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrBalanceConflict increments the conditional-write conflict counter.
func (m *Metrics) IncrBalanceConflict(operation string) {
	m.balanceConflicts.WithLabelValues(operation).Inc()
}

// IncrConsistencyFailure increments the failed-propagation counter.
func (m *Metrics) IncrConsistencyFailure(operation string) {
	m.consistencyFailures.WithLabelValues(operation).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// SyncSnapshot returns a snapshot of balance-synchronization metrics suitable
// for the GET /v1/metrics/sync endpoint.
func (m *Metrics) SyncSnapshot() *domain.SyncMetrics {
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "balance")
	cacheMisses := getCounterValue(m.cacheMisses, "balance")

	conflicts := float64(0)
	failures := float64(0)
	for _, op := range []string{"create_bill", "update_bill", "delete_bill"} {
		conflicts += getCounterValue(m.balanceConflicts, op)
		failures += getCounterValue(m.consistencyFailures, op)
	}

	errorRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.SyncMetrics{
		TotalRequests:       int64(totalRequests),
		BalanceConflicts:    int64(conflicts),
		ConsistencyFailures: int64(failures),
		ErrorRate:           errorRate,
		CacheHitRate:        cacheHitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
