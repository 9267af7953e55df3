package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global metrics instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Coaching metrics
	CoachLatency     *prometheus.HistogramVec
	CoachTokens      *prometheus.CounterVec
	CoachFailures    *prometheus.CounterVec
	OperationsByKind *prometheus.CounterVec

	// Games cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Retention metrics
	RetentionScanned prometheus.Counter
	RetentionDeleted prometheus.Counter
	RetentionFailed  prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Singleton to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	coachLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "coach_move_latency_seconds",
			Help:      "Latency of a single coach move generation",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"classification", "model"},
	)

	coachTokens := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coach_move_tokens_total",
			Help:      "Token usage of coach move generations by kind",
		},
		[]string{"kind"},
	)

	coachFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coach_move_failures_total",
			Help:      "Per-move coaching failures by failure code",
		},
		[]string{"code"},
	)

	operationsByKind := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotency_decisions_total",
			Help:      "Idempotency decisions by kind",
		},
		[]string{"kind"},
	)

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "game_cache_hits_total",
		Help:      "Game index cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "game_cache_misses_total",
		Help:      "Game index cache misses (including stale refreshes)",
	})

	retentionScanned := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retention_scanned_total",
		Help:      "Rows scanned by the retention sweeper",
	})

	retentionDeleted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retention_deleted_total",
		Help:      "Rows deleted by the retention sweeper",
	})

	retentionFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "retention_failed_total",
		Help:      "Rows the retention sweeper failed to delete",
	})

	registry.MustRegister(
		httpRequests,
		httpDuration,
		coachLatency,
		coachTokens,
		coachFailures,
		operationsByKind,
		cacheHits,
		cacheMisses,
		retentionScanned,
		retentionDeleted,
		retentionFailed,
	)

	globalCollector = &Collector{
		registry:         registry,
		HTTPRequests:     httpRequests,
		HTTPDuration:     httpDuration,
		CoachLatency:     coachLatency,
		CoachTokens:      coachTokens,
		CoachFailures:    coachFailures,
		OperationsByKind: operationsByKind,
		CacheHits:        cacheHits,
		CacheMisses:      cacheMisses,
		RetentionScanned: retentionScanned,
		RetentionDeleted: retentionDeleted,
		RetentionFailed:  retentionFailed,
	}

	return globalCollector
}

// Handler returns the HTTP handler serving the collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveCoachMove records latency and token usage for one generated move
func (c *Collector) ObserveCoachMove(classification, model string, latency time.Duration, promptTokens, completionTokens int64) {
	c.CoachLatency.WithLabelValues(classification, model).Observe(latency.Seconds())
	c.CoachTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	c.CoachTokens.WithLabelValues("completion").Add(float64(completionTokens))
	c.CoachTokens.WithLabelValues("total").Add(float64(promptTokens + completionTokens))
}
