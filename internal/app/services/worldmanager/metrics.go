package worldmanager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics is the World Manager's Prometheus collector set (SPEC_FULL.md
// S1), grounded on the teacher's internal/app/metrics package: one
// dedicated registry per process, collectors registered once at
// construction, helper methods instead of package-level vars so a test can
// construct an isolated registry per case.
type Metrics struct {
	registry *prometheus.Registry

	tickDuration     *prometheus.HistogramVec
	actionsTotal     *prometheus.CounterVec
	ledgerOpsTotal   *prometheus.CounterVec
	dungeonInstances prometheus.Gauge
}

// NewMetrics constructs and registers every collector against a fresh
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.tickDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "worldcore",
		Subsystem: "zone",
		Name:      "tick_duration_seconds",
		Help:      "Duration of one zone tick's eight phases.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"zone_id"})

	m.actionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worldcore",
		Subsystem: "dispatcher",
		Name:      "actions_total",
		Help:      "Total number of dispatched actions, by verb and outcome.",
	}, []string{"verb", "outcome"})

	m.ledgerOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "worldcore",
		Subsystem: "ledger",
		Name:      "operations_total",
		Help:      "Total number of Asset Ledger Adapter calls, by operation and outcome.",
	}, []string{"operation", "outcome"})

	m.dungeonInstances = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "worldcore",
		Subsystem: "dungeon",
		Name:      "active_instances",
		Help:      "Number of currently active dungeon instances.",
	})

	m.registry.MustRegister(
		m.tickDuration, m.actionsTotal, m.ledgerOpsTotal, m.dungeonInstances,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry exposes the underlying collector registry for the edge layer's
// /metrics endpoint; the core only registers collectors (SPEC_FULL.md S1).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveTick records one zone tick's wall-clock duration.
func (m *Metrics) ObserveTick(zoneID string, d time.Duration) {
	m.tickDuration.WithLabelValues(zoneID).Observe(d.Seconds())
}

// CountAction records one dispatched action, success or failure.
func (m *Metrics) CountAction(verb string, success bool) {
	m.actionsTotal.WithLabelValues(verb, outcomeLabel(success)).Inc()
}

// CountLedgerOp records one Asset Ledger Adapter call, success or failure.
func (m *Metrics) CountLedgerOp(operation string, success bool) {
	m.ledgerOpsTotal.WithLabelValues(operation, outcomeLabel(success)).Inc()
}

// SetDungeonInstances updates the active dungeon instance gauge.
func (m *Metrics) SetDungeonInstances(n int) {
	m.dungeonInstances.Set(float64(n))
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
