package prometheus

import (
	"net/http"
	"time"

	"requirement-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reqtrack_login_total",
			Help: "Total number of login attempts",
		},
	)

	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reqtrack_register_total",
			Help: "Total number of user registrations",
		},
	)

	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqtrack_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "invalid_password", "invalid_token", "inactive_user", ...
	)

	AuthOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqtrack_auth_operations_total",
			Help: "Total number of authentication operations",
		},
		[]string{"operation"}, // "me", "refresh", "password_change", "logout"
	)

	EntityOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqtrack_entity_operations_total",
			Help: "Total number of operations per entity type",
		},
		[]string{"entity", "operation"},
	)

	PermissionDeniedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqtrack_permission_denied_total",
			Help: "Total number of requests rejected by the authorization policy",
		},
		[]string{"operation"},
	)

	ExportCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqtrack_exports_total",
			Help: "Total number of report exports",
		},
		[]string{"entity", "format"},
	)

	UploadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reqtrack_uploads_total",
			Help: "Total number of blob store operations",
		},
		[]string{"operation"},
	)
)

// Histogram metrics
var (
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reqtrack_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reqtrack_info",
			Help: "Information about the requirement service",
		},
		[]string{"version", "environment"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(AuthOperationCounter)
	prometheus.MustRegister(EntityOperationCounter)
	prometheus.MustRegister(PermissionDeniedCounter)
	prometheus.MustRegister(ExportCounter)
	prometheus.MustRegister(UploadCounter)

	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(InfoGauge)

	registerHTTPMetrics()
}

// InitMetrics publishes the service info gauge for the running configuration
func InitMetrics(cfg *config.Config) {
	InfoGauge.Reset()
	InfoGauge.With(prometheus.Labels{
		"version":     cfg.Metrics.Version,
		"environment": cfg.Server.Env,
	}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	return func(start time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(time.Since(start).Seconds())
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordAuthOperation records an authentication operation by type
func RecordAuthOperation(operation string) {
	AuthOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordUserOperation records a user operation
func RecordUserOperation(operation string) {
	EntityOperationCounter.WithLabelValues("user", operation).Inc()
}

// RecordProjectOperation records a project operation
func RecordProjectOperation(operation string) {
	EntityOperationCounter.WithLabelValues("project", operation).Inc()
}

// RecordRequirementOperation records a requirement operation
func RecordRequirementOperation(operation string) {
	EntityOperationCounter.WithLabelValues("requirement", operation).Inc()
}

// RecordDynamicFieldOperation records a dynamic field definition operation
func RecordDynamicFieldOperation(operation string) {
	EntityOperationCounter.WithLabelValues("dynamic_field", operation).Inc()
}

// RecordReportOperation records a report read
func RecordReportOperation(operation string) {
	EntityOperationCounter.WithLabelValues("report", operation).Inc()
}

func RecordPermissionDenied(operation string) {
	PermissionDeniedCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

func RecordExport(entity, format string) {
	ExportCounter.WithLabelValues(entity, format).Inc()
}

func RecordUploadOperation(operation string) {
	UploadCounter.With(prometheus.Labels{"operation": operation}).Inc()
}
