package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/config"
)

// Drop reasons for messages the relay did not forward.
const (
	DropNoTarget     = "no_target"
	DropNotBound     = "not_bound"
	DropBackpressure = "backpressure"
	DropRateLimited  = "rate_limited"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	registry    *prometheus.Registry
	ns          string
	httpReqCnt  *prometheus.CounterVec
	httpDur     *prometheus.HistogramVec
	sessCreated prometheus.Counter
	sessEvicted *prometheus.CounterVec
	conns       prometheus.Gauge
	forwarded   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	sweeps      prometheus.Counter
	sweepDur    prometheus.Histogram
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds"}, []string{"method", "route", "status"})
	r.MustRegister(httpReqCnt, httpDur)

	sessCreated := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "sessions_created_total"})
	sessEvicted := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "sessions_evicted_total"}, []string{"reason"})
	conns := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: ns, Name: "signal_connections"})
	r.MustRegister(sessCreated, sessEvicted, conns)

	forwarded := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "messages_forwarded_total"}, []string{"type"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "messages_dropped_total"}, []string{"type", "reason"})
	r.MustRegister(forwarded, dropped)

	sweeps := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "sweeps_total"})
	sweepDur := prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: ns, Name: "sweep_duration_seconds"})
	r.MustRegister(sweeps, sweepDur)

	return &Metrics{
		registry:    r,
		ns:          ns,
		httpReqCnt:  httpReqCnt,
		httpDur:     httpDur,
		sessCreated: sessCreated,
		sessEvicted: sessEvicted,
		conns:       conns,
		forwarded:   forwarded,
		dropped:     dropped,
		sweeps:      sweeps,
		sweepDur:    sweepDur,
	}
}

// ObserveSessions exports the live session count, read at scrape time.
func (m *Metrics) ObserveSessions(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Namespace: m.ns, Name: "sessions"},
		func() float64 { return float64(count()) },
	))
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessCreated.Inc()
}

func (m *Metrics) SessionsEvicted(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.sessEvicted.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.conns.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.conns.Dec()
}

func (m *Metrics) Forwarded(msgType string) {
	if m == nil {
		return
	}
	m.forwarded.WithLabelValues(msgType).Inc()
}

func (m *Metrics) Dropped(msgType, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(msgType, reason).Inc()
}

// DroppedCounter exposes one drop series, mainly for assertions.
func (m *Metrics) DroppedCounter(msgType, reason string) prometheus.Counter {
	return m.dropped.WithLabelValues(msgType, reason)
}

func (m *Metrics) SweepDone(since time.Time) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.sweepDur.Observe(time.Since(since).Seconds())
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
