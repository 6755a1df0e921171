package geoip

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PromMetrics is a [Metrics] implementation that records open, reload,
// and traversal-overrun events as Prometheus series.
//
// Grounded on AdGuardDNS's internal/metrics/geoip.go, which registers
// analogous gauges and counters via promauto for the mmdb-backed reader.
type PromMetrics struct {
	updateTime    *prometheus.GaugeVec
	updateStatus  *prometheus.GaugeVec
	overrunsTotal *prometheus.CounterVec
}

// NewPromMetrics registers and returns a new *PromMetrics under reg. If
// reg is nil, [prometheus.DefaultRegisterer] is used.
func NewPromMetrics(reg prometheus.Registerer, namespace, subsystem string) (m *PromMetrics) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &PromMetrics{
		updateTime: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "update_time",
			Namespace: namespace,
			Subsystem: subsystem,
			Help:      "The time when the database was loaded last time.",
		}, []string{"path"}),
		updateStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name:      "update_status",
			Namespace: namespace,
			Subsystem: subsystem,
			Help:      "Status of the last load or reload. 1 is okay, 0 means an error occurred.",
		}, []string{"path"}),
		overrunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:      "traversal_overruns_total",
			Namespace: namespace,
			Subsystem: subsystem,
			Help:      "The number of trie traversals that exhausted their depth budget.",
		}, []string{"path"}),
	}
}

// type check
var _ Metrics = (*PromMetrics)(nil)

// HandleOpen implements the [Metrics] interface for *PromMetrics.
func (m *PromMetrics) HandleOpen(_ context.Context, path string, err error) {
	m.updateTime.WithLabelValues(path).SetToCurrentTime()
	if err != nil {
		m.updateStatus.WithLabelValues(path).Set(0)

		return
	}

	m.updateStatus.WithLabelValues(path).Set(1)
}

// HandleTraversalOverrun implements the [Metrics] interface for
// *PromMetrics.
func (m *PromMetrics) HandleTraversalOverrun(_ context.Context, path string) {
	m.overrunsTotal.WithLabelValues(path).Inc()
}

// HandleWatchReload implements the [Metrics] interface for *PromMetrics.
func (m *PromMetrics) HandleWatchReload(ctx context.Context, path string, err error) {
	m.HandleOpen(ctx, path, err)
}
