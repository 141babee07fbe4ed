package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for a fieldgate node.
type Metrics struct {
	config MetricsConfig

	// Stimulus metrics
	stimuliReceived *prometheus.CounterVec

	// Gate metrics
	gateDecisions *prometheus.CounterVec
	gateDuration  prometheus.Histogram

	// Homeostasis metrics
	homeostasisTicks *prometheus.CounterVec
	sealEvents       *prometheus.CounterVec

	// Handshake metrics
	handshakeOutcomes *prometheus.CounterVec

	// Entity state metrics
	stabilityScore   *prometheus.GaugeVec
	containmentRatio *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
// When metrics are disabled it returns a no-op collector.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		stimuliReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stimuli_received_total",
				Help:      "Total number of stimuli delivered to entities",
			},
			[]string{"entity_id"},
		),

		gateDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_decisions_total",
				Help:      "Total number of transition gate decisions by result",
			},
			[]string{"entity_id", "result"},
		),
		gateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gate_evaluation_duration_seconds",
				Help:      "Duration of transition gate evaluation in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		homeostasisTicks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "homeostasis_ticks_total",
				Help:      "Total number of homeostasis ticks by branch taken",
			},
			[]string{"entity_id", "branch"},
		),
		sealEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "seal_events_total",
				Help:      "Total number of protective seal events by kind",
			},
			[]string{"entity_id", "kind"},
		),

		handshakeOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handshake_outcomes_total",
				Help:      "Total number of peer handshake outcomes",
			},
			[]string{"entity_id", "outcome"},
		),

		stabilityScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stability_score",
				Help:      "Current stability score per entity",
			},
			[]string{"entity_id"},
		),
		containmentRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "containment_ratio",
				Help:      "Current containment ratio per entity",
			},
			[]string{"entity_id"},
		),
	}

	registry.MustRegister(
		m.stimuliReceived,
		m.gateDecisions,
		m.gateDuration,
		m.homeostasisTicks,
		m.sealEvents,
		m.handshakeOutcomes,
		m.stabilityScore,
		m.containmentRatio,
	)

	return m, nil
}

// RecordStimulus increments the stimulus counter for an entity.
func (m *Metrics) RecordStimulus(entityID string) {
	if m.stimuliReceived == nil {
		return
	}
	m.stimuliReceived.WithLabelValues(entityID).Inc()
}

// RecordGateDecision records a gate decision. The result is "allow" or
// the denial reason code.
func (m *Metrics) RecordGateDecision(entityID, result string, duration time.Duration) {
	if m.gateDecisions == nil {
		return
	}
	m.gateDecisions.WithLabelValues(entityID, result).Inc()
	m.gateDuration.Observe(duration.Seconds())
}

// RecordHomeostasisTick records a homeostasis tick with the branch taken
// ("tighten" or "loosen").
func (m *Metrics) RecordHomeostasisTick(entityID, branch string) {
	if m.homeostasisTicks == nil {
		return
	}
	m.homeostasisTicks.WithLabelValues(entityID, branch).Inc()
}

// RecordSealEvent records a protective seal event ("gentle" or "emergency").
func (m *Metrics) RecordSealEvent(entityID, kind string) {
	if m.sealEvents == nil {
		return
	}
	m.sealEvents.WithLabelValues(entityID, kind).Inc()
}

// RecordHandshakeOutcome records a peer handshake outcome
// ("completed", "untrusted", "byzantine", or "skipped").
func (m *Metrics) RecordHandshakeOutcome(entityID, outcome string) {
	if m.handshakeOutcomes == nil {
		return
	}
	m.handshakeOutcomes.WithLabelValues(entityID, outcome).Inc()
}

// SetEntityGauges updates the per-entity stability and containment gauges.
func (m *Metrics) SetEntityGauges(entityID string, stability, containment float64) {
	if m.stabilityScore == nil {
		return
	}
	m.stabilityScore.WithLabelValues(entityID).Set(stability)
	m.containmentRatio.WithLabelValues(entityID).Set(containment)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
