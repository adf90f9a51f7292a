// Package metrics collects Prometheus metrics for the API and the task service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service layer and middleware depend on.
type Recorder interface {
	RecordTaskOp(op, outcome string)
	RecordAuthEvent(event, outcome string)
	RecordRequest(method, route string, status int, d time.Duration)
}

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeDenied   = "denied"
	OutcomeError    = "error"
)

type Collector struct {
	taskOps      *prometheus.CounterVec
	authEvents   *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewCollector registers every metric on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		taskOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_task_operations_total",
			Help: "Task repository operations by operation and outcome",
		}, []string{"op", "outcome"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_auth_events_total",
			Help: "Authentication events by event and outcome",
		}, []string{"event", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_http_requests_total",
			Help: "HTTP responses by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskmanager_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.taskOps,
		c.authEvents,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordTaskOp(op, outcome string) {
	c.taskOps.WithLabelValues(op, outcome).Inc()
}

func (c *Collector) RecordAuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

func (c *Collector) RecordRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTaskOp(string, string)                      {}
func (Nop) RecordAuthEvent(string, string)                   {}
func (Nop) RecordRequest(string, string, int, time.Duration) {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
