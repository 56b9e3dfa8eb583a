package rpc

import (
	"net/http"
	"strconv"
	"time"

	"desktop-shell/go-backend/internal/domains/contracts"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "shell_host"

// rpcMetrics owns a private registry so that several servers can coexist in one process.
type rpcMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	limited  prometheus.Counter
	streams  prometheus.Gauge
}

func newRPCMetrics(svc contracts.HostService) *rpcMetrics {
	m := &rpcMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rpc_requests_total",
			Help:      "JSON-RPC requests by method and result code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "rpc_request_duration_seconds",
			Help:      "JSON-RPC request latency by method.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"method"}),
		limited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rpc_rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		streams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "rpc_streams_active",
			Help:      "Open notification streams.",
		}),
	}
	ready := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "bridge_ready",
		Help:      "1 when the host reports ready, 0 otherwise.",
	}, func() float64 {
		if svc != nil && svc.Ready() {
			return 1
		}
		return 0
	})
	m.registry.MustRegister(m.requests, m.latency, m.limited, m.streams, ready)
	if svc != nil {
		m.registry.MustRegister(newHostCollector(svc))
	}
	return m
}

// hostCollector reads the host's own counters on every scrape.
type hostCollector struct {
	svc       contracts.HostService
	errors    *prometheus.Desc
	opCalls   *prometheus.Desc
	opErrors  *prometheus.Desc
	backlog   *prometheus.Desc
	startedAt *prometheus.Desc
}

func newHostCollector(svc contracts.HostService) *hostCollector {
	return &hostCollector{
		svc: svc,
		errors: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "bridge", "errors_total"),
			"Failed bridge calls by error category.",
			[]string{"category"}, nil,
		),
		opCalls: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "bridge", "calls_total"),
			"Bridge calls handled by the host, by capability.",
			[]string{"capability"}, nil,
		),
		opErrors: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "bridge", "call_errors_total"),
			"Failed bridge calls by capability.",
			[]string{"capability"}, nil,
		),
		backlog: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "bridge", "notification_backlog"),
			"Lifecycle notifications retained for stream replay.",
			nil, nil,
		),
		startedAt: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "bridge", "started_timestamp_seconds"),
			"Unix time the host became ready, 0 when not ready.",
			nil, nil,
		),
	}
}

func (c *hostCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.errors
	ch <- c.opCalls
	ch <- c.opErrors
	ch <- c.backlog
	ch <- c.startedAt
}

func (c *hostCollector) Collect(ch chan<- prometheus.Metric) {
	status := c.svc.Status()
	for category, n := range status.ErrorCounters {
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(n), category)
	}
	for capability, op := range c.svc.Metrics() {
		ch <- prometheus.MustNewConstMetric(c.opCalls, prometheus.CounterValue, float64(op.Count), capability)
		ch <- prometheus.MustNewConstMetric(c.opErrors, prometheus.CounterValue, float64(op.Errors), capability)
	}
	ch <- prometheus.MustNewConstMetric(c.backlog, prometheus.GaugeValue, float64(status.NotificationBacklog))
	started := 0.0
	if !status.StartedAt.IsZero() {
		started = float64(status.StartedAt.Unix())
	}
	ch <- prometheus.MustNewConstMetric(c.startedAt, prometheus.GaugeValue, started)
}

func (m *rpcMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *rpcMetrics) observe(method string, rpcErr *rpcError, started time.Time) {
	label := metricMethodLabel(method)
	code := "0"
	if rpcErr != nil {
		code = strconv.Itoa(rpcErr.Code)
	}
	m.requests.WithLabelValues(label, code).Inc()
	m.latency.WithLabelValues(label).Observe(time.Since(started).Seconds())
}

func (m *rpcMetrics) rateLimited() {
	m.limited.Inc()
}

func (m *rpcMetrics) streamOpened() {
	m.streams.Inc()
}

func (m *rpcMetrics) streamClosed() {
	m.streams.Dec()
}

// metricMethodLabel keeps label cardinality bounded to known methods.
func metricMethodLabel(method string) string {
	if _, ok := knownMethods[method]; ok {
		return method
	}
	return "unknown"
}
