package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the server exposes. A nil *Metrics is a
// valid no-op so packages can record without checking configuration.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	jobDuration  *prometheus.HistogramVec
	jobRuns      *prometheus.CounterVec
	wsClients    prometheus.Gauge
	wsDropped    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Duration of scheduled jobs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Scheduled job executions by outcome.",
		}, []string{"job", "outcome"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Currently connected location websocket clients.",
		}),
		wsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "websocket_dropped_messages_total",
			Help: "Broadcasts dropped because a client buffer was full.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.jobDuration, m.jobRuns, m.wsClients, m.wsDropped,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveJob(job string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}

func (m *Metrics) ClientConnected() {
	if m != nil {
		m.wsClients.Inc()
	}
}

func (m *Metrics) ClientDisconnected() {
	if m != nil {
		m.wsClients.Dec()
	}
}

func (m *Metrics) MessageDropped() {
	if m != nil {
		m.wsDropped.Inc()
	}
}
