package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peermatch",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "peermatch",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	// MatchRequestsTotal counts startMatching calls that created or
	// reused a match request.
	MatchRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "peermatch",
		Name:      "match_requests_total",
		Help:      "Total number of match requests entering the queue",
	})

	// MatchesMadeTotal counts successful pairings.
	MatchesMadeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "peermatch",
		Name:      "matches_made_total",
		Help:      "Total number of tentative pairings",
	})

	// ExpiredRequestsTotal counts match requests lazily marked expired.
	ExpiredRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "peermatch",
		Name:      "expired_requests_total",
		Help:      "Total number of match requests that expired before pairing",
	})

	// SessionsStartedTotal counts merged live sessions.
	SessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "peermatch",
		Name:      "sessions_started_total",
		Help:      "Total number of live sessions created",
	})

	// SessionsEndedTotal counts terminated sessions by final status.
	SessionsEndedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peermatch",
		Name:      "sessions_ended_total",
		Help:      "Total number of live sessions ended",
	}, []string{"status"})

	// ActiveSessions tracks sessions currently in progress.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "peermatch",
		Name:      "active_sessions",
		Help:      "Number of live sessions currently in progress",
	})
)

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latencies.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		httpRequests.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
		httpLatency.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
