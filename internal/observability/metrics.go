package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa las métricas Prometheus del motor de inventario.
type Metrics struct {
	registry      *prometheus.Registry
	handler       http.Handler
	negativeStock *prometheus.CounterVec
	linesApplied  *prometheus.CounterVec
	replays       prometheus.Counter
	pendingLines  prometheus.Counter
}

// NewMetrics inicializa el registry y las métricas del conciliador.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	negative := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negocio_inventory_negative_stock_total",
		Help: "Líneas conciliadas que dejaron un insumo con existencia negativa.",
	}, []string{"negocio"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "negocio_inventory_lines_applied_total",
		Help: "Líneas del libro conciliadas por motivo.",
	}, []string{"motivo"})
	replays := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "negocio_inventory_reconcile_replays_total",
		Help: "Conciliaciones repetidas sobre referencias ya procesadas.",
	})
	pending := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "negocio_inventory_sale_lines_pending_total",
		Help: "Líneas de venta que quedaron sin procesar por insumos faltantes.",
	})
	registry.MustRegister(
		negative, applied, replays, pending,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		registry:      registry,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		negativeStock: negative,
		linesApplied:  applied,
		replays:       replays,
		pendingLines:  pending,
	}
}

// Handler devuelve el http.Handler para /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registerer expone el registry para métricas adicionales.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// NegativeStock cuenta una existencia negativa resultante.
func (m *Metrics) NegativeStock(negocioID int64) {
	if m == nil {
		return
	}
	m.negativeStock.WithLabelValues(strconv.FormatInt(negocioID, 10)).Inc()
}

// LineApplied cuenta una línea conciliada.
func (m *Metrics) LineApplied(reason string) {
	if m == nil {
		return
	}
	m.linesApplied.WithLabelValues(reason).Inc()
}

// ReconcileReplay cuenta una conciliación repetida.
func (m *Metrics) ReconcileReplay() {
	if m == nil {
		return
	}
	m.replays.Inc()
}

// SaleLinePending cuenta una línea de venta que quedó pendiente.
func (m *Metrics) SaleLinePending() {
	if m == nil {
		return
	}
	m.pendingLines.Inc()
}
