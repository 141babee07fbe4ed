package peers

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fieldgate/fieldgate/pkg/engine"
	"github.com/fieldgate/fieldgate/pkg/telemetry"
)

// DefaultStabilityThreshold is the minimum stability score a peer must
// report for the exchange phase to proceed.
const DefaultStabilityThreshold = 0.72

// Protocol implements engine.Handshaker: best-effort, detached peer
// negotiation. A task failure never reaches the entity; at most it
// leaves a log line and an outcome counter.
type Protocol struct {
	client    *Client
	threshold float64
	timeout   time.Duration
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
	tracer    *telemetry.Tracer
}

// ProtocolOption customizes the handshake protocol.
type ProtocolOption func(*Protocol)

// WithMetrics installs the metrics collector.
func WithMetrics(m *telemetry.Metrics) ProtocolOption {
	return func(p *Protocol) { p.metrics = m }
}

// WithTracer installs the tracer used for handshake spans.
func WithTracer(t *telemetry.Tracer) ProtocolOption {
	return func(p *Protocol) { p.tracer = t }
}

// WithStabilityThreshold overrides the peer stability threshold.
func WithStabilityThreshold(threshold float64) ProtocolOption {
	return func(p *Protocol) { p.threshold = threshold }
}

// NewProtocol creates the handshake protocol with the given query
// timeout.
func NewProtocol(timeout time.Duration, logger *telemetry.Logger, opts ...ProtocolOption) *Protocol {
	p := &Protocol{
		client:    NewClient(timeout),
		threshold: DefaultStabilityThreshold,
		timeout:   timeout,
		logger:    logger.NewComponentLogger("handshake"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Launch spawns one detached negotiation task per known peer. It
// returns immediately; results are delivered exclusively through the
// sink.
func (p *Protocol) Launch(snap engine.HandshakeSnapshot, deliver func(engine.HandshakeResult)) {
	for _, peer := range snap.Peers {
		go p.negotiate(snap, peer, deliver)
	}
}

// negotiate runs one best-effort handshake. Every failure path ends
// here: a panic, timeout, transport error, or misbehaving peer
// terminates the task silently.
func (p *Protocol) negotiate(snap engine.HandshakeSnapshot, peer engine.Peer, deliver func(engine.HandshakeResult)) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Zerolog().Error().
				Interface("panic", r).
				Str("peer_id", peer.ID).
				Msg("Handshake task panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if p.tracer != nil {
		var span trace.Span
		ctx, span = p.tracer.StartHandshakeSpan(ctx, snap.EntityID, peer.Address)
		defer span.End()
	}

	log := p.logger.WithPeer(peer.ID, peer.Address).WithEntityID(snap.EntityID)

	resp, err := p.client.GetStability(ctx, peer.Address)
	if err != nil {
		p.recordOutcome(snap.EntityID, "untrusted")
		log.Zerolog().Debug().Err(err).Msg("Peer untrusted: stability query failed")
		return
	}

	if err := resp.Validate(); err != nil {
		// A malformed score is protocol abuse, not a transport hiccup.
		p.recordOutcome(snap.EntityID, "byzantine")
		log.Zerolog().Warn().Err(err).Msg("Peer rejected: byzantine stability reply")
		return
	}

	if resp.Stability < p.threshold {
		p.recordOutcome(snap.EntityID, "untrusted")
		log.Zerolog().Debug().
			Float64("peer_stability", resp.Stability).
			Msg("Peer untrusted: stability below threshold")
		return
	}

	exchange := ExchangeRequest{
		EntityID:  snap.EntityID,
		Stability: snap.Stability,
		AuditSize: snap.AuditSize,
	}
	if err := p.client.Exchange(ctx, peer.Address, exchange); err != nil {
		p.recordOutcome(snap.EntityID, "untrusted")
		log.Zerolog().Debug().Err(err).Msg("Peer untrusted: exchange failed")
		return
	}

	deliver(engine.HandshakeResult{
		PeerID:             peer.ID,
		PeerStability:      resp.Stability,
		ExchangedAuditSize: snap.AuditSize,
	})
}

// recordOutcome counts a handshake outcome when metrics are enabled.
// Completed handshakes are counted by the entity when the result
// message is processed.
func (p *Protocol) recordOutcome(entityID, outcome string) {
	if p.metrics != nil {
		p.metrics.RecordHandshakeOutcome(entityID, outcome)
	}
}
