package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the dashboard's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	PanelRefreshes   *prometheus.CounterVec   // labels: panel, result
	PanelFetchDur    *prometheus.HistogramVec // labels: panel
	DatasetLoads     *prometheus.CounterVec   // labels: outcome
	RenderedSeries   *prometheus.GaugeVec     // labels: kind
	PriceFlashes     *prometheus.CounterVec   // labels: direction
	Alerts           prometheus.Counter
	WSClients        prometheus.Gauge
	CommandsReceived *prometheus.CounterVec // labels: source
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PanelRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_panel_refreshes_total",
			Help: "Panel fetches by panel and result",
		}, []string{"panel", "result"}),
		PanelFetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_panel_fetch_seconds",
			Help:    "Backend fetch duration per panel",
			Buckets: prometheus.DefBuckets,
		}, []string{"panel"}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_dataset_loads_total",
			Help: "Indicator dataset loads by outcome",
		}, []string{"outcome"}),
		RenderedSeries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_rendered_series",
			Help: "Live chart series handles per indicator kind",
		}, []string{"kind"}),
		PriceFlashes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_price_flashes_total",
			Help: "Realtime price flashes by direction",
		}, []string{"direction"}),
		Alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_alerts_total",
			Help: "User-visible alerts raised",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_ws_clients",
			Help: "Connected websocket clients",
		}),
		CommandsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_commands_total",
			Help: "Controller commands by source",
		}, []string{"source"}),
	}
	m.registry.MustRegister(
		m.PanelRefreshes,
		m.PanelFetchDur,
		m.DatasetLoads,
		m.RenderedSeries,
		m.PriceFlashes,
		m.Alerts,
		m.WSClients,
		m.CommandsReceived,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObservePanel(panel string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.PanelRefreshes.WithLabelValues(panel, result).Inc()
	m.PanelFetchDur.WithLabelValues(panel).Observe(d.Seconds())
}

func (m *Metrics) ObserveLoad(outcome string) {
	if m == nil {
		return
	}
	m.DatasetLoads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetRendered(kind string, n int) {
	if m == nil {
		return
	}
	m.RenderedSeries.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) ObserveFlash(direction string) {
	if m == nil {
		return
	}
	m.PriceFlashes.WithLabelValues(direction).Inc()
}

func (m *Metrics) ObserveAlert() {
	if m == nil {
		return
	}
	m.Alerts.Inc()
}

func (m *Metrics) ObserveCommand(source string) {
	if m == nil {
		return
	}
	m.CommandsReceived.WithLabelValues(source).Inc()
}

func (m *Metrics) AddWSClients(delta int) {
	if m == nil {
		return
	}
	m.WSClients.Add(float64(delta))
}
