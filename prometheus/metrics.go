package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counters
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blog_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counters
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blog_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Token refresh counter
	RefreshCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "blog_token_refresh_total",
			Help: "Total number of token refreshes",
		},
	)

	// Tenant operation counter
	TenantOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_tenant_operations_total",
			Help: "Total number of tenant operations",
		},
		[]string{"operation"}, // operation can be "create", "update", "resolve", etc.
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // type can be "invalid_token", "role_gate", "super_admin_key" etc.
	)

	// Tenant-specific error counter
	TenantErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_tenant_errors_total",
			Help: "Total number of tenant-related errors",
		},
		[]string{"tenant_id", "error_type"},
	)

	// Engagement counter by kind and dedup outcome
	EngagementCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_engagement_events_total",
			Help: "Total number of engagement events by kind and dedup outcome",
		},
		[]string{"kind", "outcome"}, // kind is "view" or "like"; outcome is "new" or "duplicate"
	)

	// Featured recompute counter
	FeaturedRecomputeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_featured_recompute_total",
			Help: "Total number of featured-slot recomputations",
		},
		[]string{"result"}, // result is "ok" or "error"
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blog_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blog_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blog_info",
			Help: "Information about the blog platform service",
		},
		[]string{"version"},
	)

	// Active tenants
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "blog_active_tenants",
			Help: "Number of currently active tenants",
		},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(RefreshCounter)
	prometheus.MustRegister(TenantOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(TenantErrorCounter)
	prometheus.MustRegister(EngagementCounter)
	prometheus.MustRegister(FeaturedRecomputeCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(ActiveTenantsGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordTenantError records a tenant-related error
func RecordTenantError(tenantID uint, errorType string) {
	TenantErrorCounter.With(prometheus.Labels{
		"tenant_id":  strconv.FormatUint(uint64(tenantID), 10),
		"error_type": errorType,
	}).Inc()
}

// RecordTenantOperation records a tenant operation
func RecordTenantOperation(operation string) {
	TenantOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordEngagement records an engagement event and its dedup outcome
func RecordEngagement(kind string, isNew bool) {
	outcome := "duplicate"
	if isNew {
		outcome = "new"
	}
	EngagementCounter.With(prometheus.Labels{"kind": kind, "outcome": outcome}).Inc()
}

// RecordFeaturedRecompute records the result of a featured recompute
func RecordFeaturedRecompute(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	FeaturedRecomputeCounter.With(prometheus.Labels{"result": result}).Inc()
}

// UpdateActiveTenants updates the active tenants gauge
func UpdateActiveTenants(count int) {
	ActiveTenantsGauge.Set(float64(count))
}
