package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter publishes session telemetry as Prometheus metrics on a private
// registry.
type Exporter struct {
	registry *prometheus.Registry

	state          prometheus.Gauge
	uptime         prometheus.Gauge
	rxRate         prometheus.Gauge
	txRate         prometheus.Gauge
	rxTotal        prometheus.Counter
	txTotal        prometheus.Counter
	connectFailure prometheus.Counter
}

// NewExporter creates an Exporter with all metrics registered.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wgsession",
			Name:      "session_state",
			Help:      "Session state: 0 disconnected, 1 connecting, 2 connected.",
		}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wgsession",
			Name:      "uptime_seconds",
			Help:      "Seconds since the current session connected.",
		}),
		rxRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wgsession",
			Name:      "rx_bytes_per_second",
			Help:      "Bytes received during the last sampling interval.",
		}),
		txRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wgsession",
			Name:      "tx_bytes_per_second",
			Help:      "Bytes sent during the last sampling interval.",
		}),
		rxTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wgsession",
			Name:      "rx_bytes_total",
			Help:      "Bytes received while a session was connected.",
		}),
		txTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wgsession",
			Name:      "tx_bytes_total",
			Help:      "Bytes sent while a session was connected.",
		}),
		connectFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wgsession",
			Name:      "connect_failures_total",
			Help:      "Connect attempts that failed in the backend.",
		}),
	}
	e.registry.MustRegister(
		e.state, e.uptime, e.rxRate, e.txRate, e.rxTotal, e.txTotal, e.connectFailure,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return e
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry { return e.registry }

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// SetState records the numeric session state.
func (e *Exporter) SetState(v int) { e.state.Set(float64(v)) }

// Observe records one telemetry sample.
func (e *Exporter) Observe(s Sample) {
	e.uptime.Set(float64(s.UptimeSeconds))
	e.rxRate.Set(float64(s.RxDeltaBytes))
	e.txRate.Set(float64(s.TxDeltaBytes))
	e.rxTotal.Add(float64(s.RxDeltaBytes))
	e.txTotal.Add(float64(s.TxDeltaBytes))
}

// ConnectFailed counts a failed connect attempt.
func (e *Exporter) ConnectFailed() { e.connectFailure.Inc() }
