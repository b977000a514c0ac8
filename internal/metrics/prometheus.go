package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	totalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "code"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	totalErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP responses with 5xx codes",
		},
		[]string{"method", "endpoint", "code"},
	)

	loadCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "directory_load_cycles_total",
			Help: "Users load cycles by terminal state",
		},
		[]string{"state"},
	)

	loadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "directory_load_duration_seconds",
			Help:    "Time from mount to terminal load state",
			Buckets: prometheus.DefBuckets,
		},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "directory_sessions_active",
			Help: "Currently mounted directory sessions",
		},
	)
)

func init() {
	prometheus.MustRegister(totalRequests)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(totalErrors)
	prometheus.MustRegister(loadCycles)
	prometheus.MustRegister(loadDuration)
	prometheus.MustRegister(activeSessions)
}

// ObserveLoad records a load cycle that ended in state after elapsed.
func ObserveLoad(state string, elapsed time.Duration) {
	loadCycles.WithLabelValues(state).Inc()
	loadDuration.Observe(elapsed.Seconds())
}

// SessionMounted increments the active session gauge.
func SessionMounted() {
	activeSessions.Inc()
}

// SessionUnmounted decrements the active session gauge.
func SessionUnmounted() {
	activeSessions.Dec()
}

// Middleware records request counts and latencies per route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}

			endpoint := c.Path()
			if endpoint == "" {
				endpoint = c.Request().URL.Path
			}

			codeStr := strconv.Itoa(status)
			totalRequests.WithLabelValues(c.Request().Method, endpoint, codeStr).Inc()
			requestDuration.WithLabelValues(c.Request().Method, endpoint).Observe(time.Since(start).Seconds())

			if status >= 500 {
				totalErrors.WithLabelValues(c.Request().Method, endpoint, codeStr).Inc()
			}
			return err
		}
	}
}
