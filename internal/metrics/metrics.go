// Package metrics exposes the service's prometheus collectors behind a
// small interface so that callers never touch prometheus types directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tanjiaxian99/nusfitness-api/internal/config"
)

type Recorder interface {
	IncRequestsTotal(route string, status int)
	ObserveRequestDuration(route string, duration time.Duration)
	IncBookings(op, outcome string)
	IncCreditsConsumed(outcome string)
	IncTrafficCacheHits()
	IncTrafficCacheMisses()
	ObserveScrapeDuration(duration time.Duration)
	IncJobRuns(job, outcome string)
}

type PromRecorder struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bookings        *prometheus.CounterVec
	credits         *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	scrapeDuration  prometheus.Histogram
	jobRuns         *prometheus.CounterVec
}

func (m *PromRecorder) IncRequestsTotal(route string, status int) {
	m.requestsTotal.WithLabelValues(route, httpStatusBucket(status)).Inc()
}

func (m *PromRecorder) ObserveRequestDuration(route string, duration time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *PromRecorder) IncBookings(op, outcome string) {
	m.bookings.WithLabelValues(op, outcome).Inc()
}

func (m *PromRecorder) IncCreditsConsumed(outcome string) {
	m.credits.WithLabelValues(outcome).Inc()
}

func (m *PromRecorder) IncTrafficCacheHits()   { m.cacheHits.Inc() }
func (m *PromRecorder) IncTrafficCacheMisses() { m.cacheMisses.Inc() }

func (m *PromRecorder) ObserveScrapeDuration(duration time.Duration) {
	m.scrapeDuration.Observe(duration.Seconds())
}

func (m *PromRecorder) IncJobRuns(job, outcome string) {
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// New registers the collectors on reg.  When metrics are disabled it
// returns a recorder that drops everything.
func New(cfg config.MetricsConfig, reg prometheus.Registerer) Recorder {
	if !cfg.Enabled {
		return Noop{}
	}
	f := promauto.With(reg)
	return &PromRecorder{
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nusfitness_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "status"}),

		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nusfitness_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		bookings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nusfitness_bookings_total",
			Help: "Book and cancel attempts by outcome",
		}, []string{"op", "outcome"}),

		credits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nusfitness_credits_consumed_total",
			Help: "Credit consumption attempts by outcome",
		}, []string{"outcome"}),

		cacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "nusfitness_traffic_cache_hits_total",
			Help: "Live traffic reads served from the in-process cache",
		}),

		cacheMisses: f.NewCounter(prometheus.CounterOpts{
			Name: "nusfitness_traffic_cache_misses_total",
			Help: "Live traffic reads that went to the portal",
		}),

		scrapeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nusfitness_portal_scrape_duration_seconds",
			Help:    "Duration of a full portal login and scrape",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
		}),

		jobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nusfitness_job_runs_total",
			Help: "Scheduled job executions by outcome",
		}, []string{"job", "outcome"}),
	}
}

// Noop is used when metrics are disabled and in tests.
type Noop struct{}

func (Noop) IncRequestsTotal(_ string, _ int)                 {}
func (Noop) ObserveRequestDuration(_ string, _ time.Duration) {}
func (Noop) IncBookings(_, _ string)                          {}
func (Noop) IncCreditsConsumed(_ string)                      {}
func (Noop) IncTrafficCacheHits()                             {}
func (Noop) IncTrafficCacheMisses()                           {}
func (Noop) ObserveScrapeDuration(_ time.Duration)            {}
func (Noop) IncJobRuns(_, _ string)                           {}
