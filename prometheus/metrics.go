package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contacts_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contacts_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// Database operation metrics
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contacts_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Contact operations by kind: create, update, delete, search, ...
	ContactOperationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contacts_contact_operations_total",
			Help: "Total number of contact operations",
		},
		[]string{"operation"},
	)

	// Import row outcomes: created, updated, skipped, failed
	ImportRowsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contacts_import_rows_total",
			Help: "Total number of processed import rows by outcome",
		},
		[]string{"outcome"},
	)

	ImportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contacts_import_duration_seconds",
			Help:    "Duration of bulk imports in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	AttributeAutoCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contacts_attribute_definitions_auto_created_total",
			Help: "Total number of attribute definitions created on first use",
		},
	)

	// Organization resolution failures by reason
	OrganizationResolutionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contacts_organization_resolution_errors_total",
			Help: "Total number of requests rejected for a missing or invalid organization",
		},
		[]string{"reason"},
	)

	// Login attempts by outcome: success, invalid_credentials, denied
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contacts_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Error responses by kind
	ErrorResponsesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contacts_error_responses_total",
			Help: "Total number of error responses by error kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(ContactOperationsCounter)
	prometheus.MustRegister(ImportRowsCounter)
	prometheus.MustRegister(ImportDuration)
	prometheus.MustRegister(AttributeAutoCreatedCounter)
	prometheus.MustRegister(OrganizationResolutionErrors)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(ErrorResponsesCounter)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operation string) func(startTime time.Time) {
	return func(startTime time.Time) {
		DBOperationDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}
}

// RecordHTTPRequest records one served request
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordContactOperation increments the counter for contact operations
func RecordContactOperation(operation string) {
	ContactOperationsCounter.WithLabelValues(operation).Inc()
}

// RecordImportRows adds the outcome counts of one import
func RecordImportRows(created, updated, skipped, failed int) {
	ImportRowsCounter.WithLabelValues("created").Add(float64(created))
	ImportRowsCounter.WithLabelValues("updated").Add(float64(updated))
	ImportRowsCounter.WithLabelValues("skipped").Add(float64(skipped))
	ImportRowsCounter.WithLabelValues("failed").Add(float64(failed))
}

// RecordAttributeAutoCreated counts a definition created on first use
func RecordAttributeAutoCreated() {
	AttributeAutoCreatedCounter.Inc()
}

// RecordOrganizationResolutionError counts a rejected organization lookup
func RecordOrganizationResolutionError(reason string) {
	OrganizationResolutionErrors.WithLabelValues(reason).Inc()
}

// RecordErrorResponse counts an error response by kind
func RecordErrorResponse(kind string) {
	ErrorResponsesCounter.WithLabelValues(kind).Inc()
}

// RecordLogin counts a login attempt by outcome
func RecordLogin(outcome string) {
	LoginCounter.WithLabelValues(outcome).Inc()
}
