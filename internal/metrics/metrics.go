// Package metrics exposes Prometheus metrics for the task lifecycle and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by services and middleware
type Recorder interface {
	RecordTaskCreated(sport string, players int)
	RecordTaskStarted()
	RecordTaskCompleted()
	RecordLogin(success bool)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	tasksCreated      *prometheus.CounterVec
	completionsOpened prometheus.Counter
	tasksStarted      prometheus.Counter
	tasksCompleted    prometheus.Counter
	logins            *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
}

// Ensure Collector implements Recorder
var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		tasksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "s3arena_tasks_created_total",
			Help: "Tasks created, by sport",
		}, []string{"sport"}),
		completionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "s3arena_completions_created_total",
			Help: "Completion records created with new tasks",
		}),
		tasksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "s3arena_tasks_started_total",
			Help: "Completions moved to started",
		}),
		tasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "s3arena_tasks_completed_total",
			Help: "Completions marked completed",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "s3arena_logins_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "s3arena_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "s3arena_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.tasksCreated,
		c.completionsOpened,
		c.tasksStarted,
		c.tasksCompleted,
		c.logins,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// RecordTaskCreated counts a new task and its completion records
func (c *Collector) RecordTaskCreated(sport string, players int) {
	if sport == "" {
		sport = "none"
	}
	c.tasksCreated.WithLabelValues(sport).Inc()
	c.completionsOpened.Add(float64(players))
}

func (c *Collector) RecordTaskStarted() {
	c.tasksStarted.Inc()
}

func (c *Collector) RecordTaskCompleted() {
	c.tasksCompleted.Inc()
}

func (c *Collector) RecordLogin(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records one served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the HTTP handler for Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordTaskCreated(string, int)                        {}
func (Nop) RecordTaskStarted()                                   {}
func (Nop) RecordTaskCompleted()                                 {}
func (Nop) RecordLogin(bool)                                     {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
