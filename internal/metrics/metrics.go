package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bayouboard_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bayouboard_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	sessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bayouboard_sessions_created_total",
		Help: "Count of sessions created by login and registration",
	})

	sessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bayouboard_sessions_swept_total",
		Help: "Count of expired session rows removed by the sweeper",
	})

	loginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bayouboard_login_failures_total",
		Help: "Count of login attempts rejected for bad credentials",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveSessionCreated increments the created-sessions counter.
func ObserveSessionCreated() {
	sessionsCreated.Inc()
}

// ObserveSessionsSwept adds swept rows to the sweeper counter.
func ObserveSessionsSwept(count int64) {
	if count > 0 {
		sessionsSwept.Add(float64(count))
	}
}

// ObserveLoginFailure increments the failed-logins counter.
func ObserveLoginFailure() {
	loginFailures.Inc()
}

// HTTPMetricsMiddleware instruments requests with Prometheus metrics
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		ObserveHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(ww.status), time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
