package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	pumpIterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bytecomm",
			Subsystem: "pump",
			Name:      "iterations_total",
			Help:      "Delivery pump iterations by outcome.",
		},
		[]string{"pump", "outcome"},
	)
	framesExamined = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bytecomm",
			Subsystem: "frame",
			Name:      "examined_total",
			Help:      "Framing buffer examinations by outcome.",
		},
		[]string{"outcome"},
	)
	sessionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bytecomm",
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Duplex sessions started.",
		},
	)
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bytecomm",
			Subsystem: "session",
			Name:      "active",
			Help:      "Duplex sessions currently relaying.",
		},
	)
	sessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bytecomm",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Duplex session lifetime in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bytecomm",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"link", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bytecomm",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"link", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			pumpIterations,
			framesExamined,
			sessionsTotal,
			sessionsActive,
			sessionDuration,
			httpRequests,
			httpDuration,
		)
	})
}

// RecordPumpIteration counts one pump iteration; delivered is false when the source missed.
func RecordPumpIteration(pump string, delivered bool) {
	RegisterMetrics()
	outcome := "miss"
	if delivered {
		outcome = "item"
	}
	pumpIterations.WithLabelValues(pump, outcome).Inc()
}

func RecordFrame(outcome string) {
	RegisterMetrics()
	framesExamined.WithLabelValues(outcome).Inc()
}

// SessionStarted marks a session active and returns the func that closes it out.
func SessionStarted() func() {
	RegisterMetrics()
	start := time.Now()
	sessionsTotal.Inc()
	sessionsActive.Inc()
	return func() {
		sessionsActive.Dec()
		sessionDuration.Observe(time.Since(start).Seconds())
	}
}

func RecordHTTPRequest(link, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(link, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(link, method, path, statusLabel).Observe(duration.Seconds())
}
