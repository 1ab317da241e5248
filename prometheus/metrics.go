package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/holi87/hardware-registry/pkg/config"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	// AuthErrorCounter counts authentication and authorization failures by reason
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_errors_total",
			Help: "Total number of authentication/authorization errors",
		},
		[]string{"service", "reason"},
	)

	// EntityOperationCounter counts registry operations by entity and operation
	EntityOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_entity_operations_total",
			Help: "Total number of registry entity operations",
		},
		[]string{"service", "entity", "operation"},
	)

	// ValidationErrorCounter counts invariant violations rejected by the registry core
	ValidationErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_validation_errors_total",
			Help: "Total number of rejected registry operations",
		},
		[]string{"service", "entity"},
	)

	// DBOperationDuration records database operation duration in seconds
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	// ActiveTokensGauge tracks issued access tokens
	ActiveTokensGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auth_active_tokens",
			Help: "Number of issued access tokens",
		},
		[]string{"service"},
	)
)

var serviceName = "hardware-registry"

// InitMetrics registers all metrics with the default registry
func InitMetrics(cfg *config.Config) {
	if cfg != nil && cfg.Metrics.Prefix != "" {
		serviceName = cfg.Metrics.Prefix
	}

	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDurationHistogram)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(EntityOperationCounter)
	prometheus.MustRegister(ValidationErrorCounter)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(ActiveTokensGauge)
}

// RecordAuthError increments the auth error counter for a reason
func RecordAuthError(reason string) {
	AuthErrorCounter.WithLabelValues(serviceName, reason).Inc()
}

// RecordEntityOperation increments the operation counter for an entity
func RecordEntityOperation(entity, operation string) {
	EntityOperationCounter.WithLabelValues(serviceName, entity, operation).Inc()
}

// RecordValidationError increments the rejected-operation counter
func RecordValidationError(entity string) {
	ValidationErrorCounter.WithLabelValues(serviceName, entity).Inc()
}

// TrackDBOperation returns a function that records the operation duration
// when invoked: defer TrackDBOperation("query")(time.Now())
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.WithLabelValues(serviceName, operation).Observe(time.Since(start).Seconds())
	}
}

// IncreaseActiveTokens bumps the issued-token gauge
func IncreaseActiveTokens() {
	ActiveTokensGauge.WithLabelValues(serviceName).Inc()
}

// MetricsMiddleware creates an Echo middleware that records HTTP request metrics
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			RequestCounter.WithLabelValues(serviceName, method, path, statusStr).Inc()
			RequestDurationHistogram.WithLabelValues(serviceName, method, path, statusStr).
				Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// GetPrometheusHandler returns an HTTP handler for exposing Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}
