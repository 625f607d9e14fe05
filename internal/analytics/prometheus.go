package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics mirrors the in-process Collector as Prometheus
// series, grounded on pcraw4d-business-verification's
// classification_metrics.go (promauto-registered Counter/Gauge set).
// A host that does not care about Prometheus simply never constructs
// one; the Collector itself has no Prometheus dependency.
type PrometheusMetrics struct {
	SelectionsTotal   prometheus.Counter
	ValidationsTotal  *prometheus.CounterVec
	PoolSize          *prometheus.GaugeVec
	SourceErrorsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics registers the engine's series against reg (or
// the default registry, if reg is nil).
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		SelectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "proxypool_selections_total",
			Help: "Total number of proxies handed out via getNextProxy and friends.",
		}),
		ValidationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proxypool_validations_total",
			Help: "Total number of proxy validations, labeled by outcome.",
		}, []string{"outcome"}),
		PoolSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "proxypool_pool_size",
			Help: "Current proxy pool size, labeled by subset (candidates, validated).",
		}, []string{"subset"}),
		SourceErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proxypool_source_errors_total",
			Help: "Total number of source fetch failures, labeled by source name.",
		}, []string{"source"}),
	}
}

func (m *PrometheusMetrics) ObserveSelection() {
	if m == nil {
		return
	}
	m.SelectionsTotal.Inc()
}

func (m *PrometheusMetrics) ObserveValidation(valid bool) {
	if m == nil {
		return
	}
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.ValidationsTotal.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) ObserveSourceError(sourceName string) {
	if m == nil {
		return
	}
	m.SourceErrorsTotal.WithLabelValues(sourceName).Inc()
}

func (m *PrometheusMetrics) SetPoolSize(subset string, size int) {
	if m == nil {
		return
	}
	m.PoolSize.WithLabelValues(subset).Set(float64(size))
}
