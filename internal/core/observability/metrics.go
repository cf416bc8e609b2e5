package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	seamOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seam_operations_total",
			Help: "Antimeridian and CRS operations by outcome.",
		},
		[]string{"op", "outcome"},
	)

	seamOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seam_operation_duration_seconds",
			Help:    "Duration of antimeridian and CRS operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"op"},
	)

	seamSplitParts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seam_split_parts",
			Help:    "Number of polygons produced by an antimeridian split.",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 16, 32},
		},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Result cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis cache operations by status.",
		},
		[]string{"op", "status"},
	)

	kafkaConsumerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_consumer_errors_total",
			Help: "Errors seen by the correction job consumer.",
		},
		[]string{"kind"},
	)

	kafkaJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_jobs_total",
			Help: "Correction jobs handled by the consumer.",
		},
		[]string{"op", "outcome"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		seamOperations, seamOperationDuration, seamSplitParts,
		cacheResults, cacheOps,
		kafkaConsumerErrors, kafkaJobs,
	}
}

// Init registers the service metrics with reg. Collectors already present in
// reg are left alone so Init may be called more than once. With enabled set
// to false or a nil reg the metrics are still updated but never exported.
func Init(reg prometheus.Registerer, enabled bool) error {
	if !enabled || reg == nil {
		return nil
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveOperation records one operation; err == nil counts as "ok".
func ObserveOperation(op string, err error, durationSeconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	seamOperations.WithLabelValues(op, outcome).Inc()
	seamOperationDuration.WithLabelValues(op).Observe(durationSeconds)
}

func ObserveSplitParts(n int) {
	seamSplitParts.Observe(float64(n))
}

func IncCacheHit(tier string) {
	cacheResults.WithLabelValues(tier, "hit").Inc()
}

func IncCacheMiss(tier string) {
	cacheResults.WithLabelValues(tier, "miss").Inc()
}

func ObserveCacheOp(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	cacheOps.WithLabelValues(op, status).Inc()
}

func IncKafkaConsumerError(kind string) {
	kafkaConsumerErrors.WithLabelValues(kind).Inc()
}

func IncKafkaJob(op, outcome string) {
	kafkaJobs.WithLabelValues(op, outcome).Inc()
}
