package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/fieldgate/fieldgate/pkg/field"
	"github.com/fieldgate/fieldgate/pkg/gate"
	"github.com/fieldgate/fieldgate/pkg/telemetry"
)

// run is the owner goroutine: the only code that reads or writes entity
// state. It serializes stimuli, ticks, transition requests, handshake
// completions, and emergency triggers, and re-arms its own tick timer
// after every homeostasis execution.
func (e *Entity) run() {
	defer close(e.stopped)

	timer := time.NewTimer(e.cfg.TickInterval)
	defer timer.Stop()

	for {
		select {
		case <-e.done:
			return

		case <-timer.C:
			if !e.emergency {
				e.homeostasisTick()
				timer.Reset(e.cfg.TickInterval)
			}

		case msg := <-e.mailbox:
			e.dispatch(msg)
		}
	}
}

// dispatch routes one mailbox message. Once the entity is emergency
// sealed, mutating messages are dropped even if they were already
// queued; only queries are served.
func (e *Entity) dispatch(msg message) {
	switch {
	case msg.query != nil:
		e.handleQuery(msg.query)

	case msg.stimulus != nil:
		if e.emergency {
			return
		}
		e.handleStimulus(*msg.stimulus)

	case msg.transition != nil:
		if e.emergency {
			msg.transition.reply <- transitionReply{err: ErrEmergencySealed}
			return
		}
		e.handleTransition(msg.transition)

	case msg.handshake != nil:
		if e.emergency || !e.coupled {
			return
		}
		e.handleHandshakeResult(*msg.handshake)

	case msg.emergency != nil:
		e.handleEmergency(msg.emergency.reason)
	}
}

// handleStimulus evolves the field under the stimulus, refreshes the
// derived metrics, and opportunistically spawns a detached peer
// handshake when the stimulus is strong and the entity is stable.
func (e *Entity) handleStimulus(s Stimulus) {
	e.field.Evolve(s.Vorticity, e.containment)
	e.stability = field.Stability(e.field)

	if e.metrics != nil {
		e.metrics.RecordStimulus(e.id)
		e.metrics.SetEntityGauges(e.id, e.stability, e.containment)
	}

	e.logger.Zerolog().Debug().
		Float64("vorticity", s.Vorticity).
		Str("source_id", s.SourceID).
		Float64("stability", e.stability).
		Msg("Stimulus absorbed")

	if s.Vorticity > e.cfg.VorticityTrigger && e.stability >= e.cfg.CriticalThreshold {
		e.spawnHandshake()
	}
}

// spawnHandshake launches the detached peer negotiation over an
// immutable snapshot. The task reports back only through the mailbox
// sink and never blocks stimulus handling.
func (e *Entity) spawnHandshake() {
	if e.handshaker == nil || !e.coupled || len(e.neighbors) == 0 {
		return
	}

	peers := make([]Peer, len(e.neighbors))
	copy(peers, e.neighbors)

	snap := HandshakeSnapshot{
		EntityID:  e.id,
		Stability: e.stability,
		AuditSize: len(e.audit),
		Peers:     peers,
	}
	e.handshaker.Launch(snap, e.deliverHandshakeResult)
}

// handleTransition runs the seven-criterion gate against the request
// snapshot and the current containment ratio. On approval the effect is
// applied atomically; on denial the state is untouched and the reason
// is reported verbatim and audited.
func (e *Entity) handleTransition(msg *transitionMsg) {
	start := e.now()

	var span trace.Span
	if e.tracer != nil {
		_, span = e.tracer.StartGateSpan(context.Background(), e.id, string(msg.req.Target))
		defer span.End()
	}

	outcome, err := gate.Evaluate(msg.req, e.containment)
	duration := e.now().Sub(start)

	if err != nil {
		reason := "denied"
		if r, ok := gate.ReasonOf(err); ok {
			reason = string(r)
		}
		if e.metrics != nil {
			e.metrics.RecordGateDecision(e.id, reason, duration)
		}
		if span != nil {
			telemetry.RecordError(span, err)
		}
		e.appendAudit("transition denied: " + reason)
		e.logger.Zerolog().Warn().
			Str("target", string(msg.req.Target)).
			Str("reason", reason).
			Msg("Transition denied")

		msg.reply <- transitionReply{err: err}
		return
	}

	e.state = outcome.State
	e.containment = outcome.ContainmentRatio
	e.stability = field.Stability(e.field)

	if e.metrics != nil {
		e.metrics.RecordGateDecision(e.id, "allow", duration)
		e.metrics.SetEntityGauges(e.id, e.stability, e.containment)
	}
	if span != nil {
		telemetry.RecordSuccess(span)
	}
	e.appendAudit("transition approved: " + string(outcome.State))
	e.logger.Zerolog().Info().
		Str("state", string(e.state)).
		Float64("containment_ratio", e.containment).
		Msg("Transition approved")

	msg.reply <- transitionReply{stability: e.stability}
}

// handleHandshakeResult appends the completion audit entry for a
// handshake that reached the exchange phase.
func (e *Entity) handleHandshakeResult(r HandshakeResult) {
	if e.metrics != nil {
		e.metrics.RecordHandshakeOutcome(e.id, "completed")
	}
	e.appendAudit("peer handshake completed: " + r.PeerID)
	e.logger.Zerolog().Info().
		Str("peer_id", r.PeerID).
		Float64("peer_stability", r.PeerStability).
		Int("exchanged_audit_size", r.ExchangedAuditSize).
		Msg("Peer handshake completed")
}

// handleEmergency performs emergency containment, in order: disable
// external coupling, set the irreversible emergency flag, seal the
// lifecycle. The tick timer is abandoned; no further mutation happens.
func (e *Entity) handleEmergency(reason string) {
	if e.emergency {
		return
	}

	e.coupled = false
	e.emergency = true
	e.state = gate.StateSealedEmergency

	if e.metrics != nil {
		e.metrics.RecordSealEvent(e.id, "emergency")
	}
	e.appendAudit("emergency containment: " + reason)
	e.logger.Zerolog().Error().
		Str("reason", reason).
		Msg("Emergency containment engaged")
}

// handleQuery serves non-mutating reads.
func (e *Entity) handleQuery(q *queryMsg) {
	if q.snapshot != nil {
		q.snapshot <- Snapshot{
			ID:               e.id,
			State:            string(e.state),
			Stability:        e.stability,
			ContainmentRatio: e.containment,
			AuditSize:        len(e.audit),
		}
	}
	if q.audit != nil {
		q.audit <- e.copyAudit()
	}
}
