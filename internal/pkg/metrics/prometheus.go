package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "probegrid",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "probegrid",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "probegrid",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Check execution metrics
	checkExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "probegrid",
			Subsystem: "check",
			Name:      "executions_total",
			Help:      "Total number of check executions",
		},
		[]string{"check_type", "result"},
	)

	checkExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "probegrid",
			Subsystem: "check",
			Name:      "execution_duration_seconds",
			Help:      "Duration of check executions in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"check_type"},
	)

	failingChecks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "probegrid",
			Subsystem: "check",
			Name:      "failing_count",
			Help:      "Number of checks with a nonzero failure streak",
		},
	)

	// Scan cycle metrics
	scanCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "probegrid",
			Subsystem: "scanner",
			Name:      "cycles_total",
			Help:      "Total number of completed scan cycles",
		},
	)

	scanCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "probegrid",
			Subsystem: "scanner",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full scan cycle in seconds",
			Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	lockContentionTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "probegrid",
			Subsystem: "scanner",
			Name:      "lock_contention_total",
			Help:      "Number of schedule lock acquisitions lost to another node",
		},
	)

	// Alert metrics
	alertsTriggeredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "probegrid",
			Subsystem: "alert",
			Name:      "triggered_total",
			Help:      "Total number of alerts triggered",
		},
		[]string{"severity"},
	)

	activeAlerts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "probegrid",
			Subsystem: "alert",
			Name:      "active_count",
			Help:      "Number of unresolved alerts",
		},
		[]string{"status"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "probegrid",
			Subsystem: "alert",
			Name:      "notifications_total",
			Help:      "Total number of notification deliveries",
		},
		[]string{"status"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Label on the chi route pattern, not the raw path, to keep
		// cardinality bounded
		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCheckExecution records one check execution outcome
func RecordCheckExecution(checkType, result string, duration time.Duration) {
	checkExecutionsTotal.WithLabelValues(checkType, result).Inc()
	checkExecutionDuration.WithLabelValues(checkType).Observe(duration.Seconds())
}

// SetFailingChecks sets the gauge for checks with a failure streak
func SetFailingChecks(count float64) {
	failingChecks.Set(count)
}

// RecordScanCycle records a completed scan cycle
func RecordScanCycle(duration time.Duration) {
	scanCyclesTotal.Inc()
	scanCycleDuration.Observe(duration.Seconds())
}

// RecordLockContention records a lost schedule lock acquisition
func RecordLockContention() {
	lockContentionTotal.Inc()
}

// RecordAlertTriggered records a newly triggered alert
func RecordAlertTriggered(severity string) {
	alertsTriggeredTotal.WithLabelValues(severity).Inc()
}

// SetActiveAlerts sets the gauge for unresolved alerts by status
func SetActiveAlerts(status string, count float64) {
	activeAlerts.WithLabelValues(status).Set(count)
}

// RecordNotification records a notification delivery attempt
func RecordNotification(status string) {
	notificationsTotal.WithLabelValues(status).Inc()
}
