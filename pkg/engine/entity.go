package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldgate/fieldgate/pkg/config"
	"github.com/fieldgate/fieldgate/pkg/field"
	"github.com/fieldgate/fieldgate/pkg/gate"
	"github.com/fieldgate/fieldgate/pkg/stores"
	"github.com/fieldgate/fieldgate/pkg/telemetry"
)

// Entity is a single-writer governed process. All state below the
// mailbox is owned exclusively by the run loop goroutine; external
// callers interact through messages only.
type Entity struct {
	id  string
	cfg config.EntityConfig

	// Owner-goroutine state. Never touched outside the run loop once
	// Start has been called.
	field       field.Field
	stability   float64
	containment float64
	state       gate.State
	emergency   bool
	coupled     bool
	neighbors   []Peer
	audit       []stores.AuditEntry

	mailbox chan message
	done    chan struct{}
	stopped chan struct{}

	store      stores.Store
	handshaker Handshaker
	logger     *telemetry.Logger
	metrics    *telemetry.Metrics
	tracer     *telemetry.Tracer
	now        func() time.Time
}

// Option customizes an Entity at creation.
type Option func(*Entity)

// WithStore mirrors every audit append into the given persistence layer.
func WithStore(store stores.Store) Option {
	return func(e *Entity) { e.store = store }
}

// WithHandshaker installs the detached peer-negotiation launcher.
func WithHandshaker(h Handshaker) Option {
	return func(e *Entity) { e.handshaker = h }
}

// WithNeighbors sets the peer references known at creation.
func WithNeighbors(peers []Peer) Option {
	return func(e *Entity) { e.neighbors = peers }
}

// WithMetrics installs the metrics collector.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Entity) { e.metrics = m }
}

// WithTracer installs the tracer used for gate evaluation spans.
func WithTracer(t *telemetry.Tracer) Option {
	return func(e *Entity) { e.tracer = t }
}

// withClock overrides the entity clock, for tests.
func withClock(now func() time.Time) Option {
	return func(e *Entity) { e.now = now }
}

// New creates an entity in the Confined state with a freshly seeded
// field and the configured initial containment ratio. The field seeding
// is the only non-deterministic step in the entity's lifetime.
func New(cfg config.EntityConfig, logger *telemetry.Logger, opts ...Option) *Entity {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &Entity{
		id:          uuid.NewString(),
		cfg:         cfg,
		field:       field.Initialize(cfg.FieldSize, seed),
		containment: gate.ClampRatio(cfg.InitialContainment),
		state:       gate.StateConfined,
		coupled:     true,
		mailbox:     make(chan message, 64),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
		logger:      logger,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.stability = field.Stability(e.field)
	e.logger = e.logger.NewComponentLogger("entity").WithEntityID(e.id)
	return e
}

// ID returns the entity's opaque unique identifier.
func (e *Entity) ID() string {
	return e.id
}

// Start launches the owner goroutine and arms the first homeostasis
// tick. The tick timer is tied to the entity lifetime and cancelled by
// Stop.
func (e *Entity) Start() {
	go e.run()
	e.logger.Info("Entity started")
}

// Stop shuts the owner goroutine down and waits for it to drain.
func (e *Entity) Stop() {
	select {
	case <-e.done:
	default:
		close(e.done)
	}
	<-e.stopped
}

// SendStimulus delivers a stimulus to the owner mailbox. It never
// blocks on a stopped entity.
func (e *Entity) SendStimulus(s Stimulus) error {
	return e.send(message{stimulus: &s})
}

// RequestTransition submits a transition request and waits for the
// synchronous gate verdict. On approval the returned stability score is
// the post-transition score; on denial the entity state is guaranteed
// unchanged and the error carries the specific gate reason.
func (e *Entity) RequestTransition(ctx context.Context, req gate.Request) (float64, error) {
	reply := make(chan transitionReply, 1)
	if err := e.send(message{transition: &transitionMsg{req: req, reply: reply}}); err != nil {
		return 0, err
	}

	select {
	case r := <-reply:
		return r.stability, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-e.stopped:
		return 0, ErrStopped
	}
}

// GetStability returns the current stability score. Queries keep
// working after the entity is sealed.
func (e *Entity) GetStability(ctx context.Context) (float64, error) {
	snap, err := e.GetSnapshot(ctx)
	if err != nil {
		return 0, err
	}
	return snap.Stability, nil
}

// GetSnapshot returns a read-only view of the entity's state.
func (e *Entity) GetSnapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := e.send(message{query: &queryMsg{snapshot: reply}}); err != nil {
		return Snapshot{}, err
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-e.stopped:
		return Snapshot{}, ErrStopped
	}
}

// AuditLog returns a copy of the in-memory audit log in append order.
func (e *Entity) AuditLog(ctx context.Context) ([]stores.AuditEntry, error) {
	reply := make(chan []stores.AuditEntry, 1)
	if err := e.send(message{query: &queryMsg{audit: reply}}); err != nil {
		return nil, err
	}

	select {
	case entries := <-reply:
		return entries, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.stopped:
		return nil, ErrStopped
	}
}

// TriggerEmergency requests emergency containment for a fatal
// condition. The transition is irreversible: coupling is disabled, the
// emergency flag set, and the lifecycle moves to SealedEmergency.
func (e *Entity) TriggerEmergency(reason string) error {
	return e.send(message{emergency: &emergencyMsg{reason: reason}})
}

// deliverHandshakeResult is the sink handed to detached handshake
// tasks. A result that cannot be enqueued is dropped; handshake failure
// must never propagate.
func (e *Entity) deliverHandshakeResult(r HandshakeResult) {
	_ = e.send(message{handshake: &r})
}

// send enqueues a message unless the entity has shut down.
func (e *Entity) send(msg message) error {
	select {
	case <-e.done:
		return ErrStopped
	default:
	}

	select {
	case e.mailbox <- msg:
		return nil
	case <-e.done:
		return ErrStopped
	}
}
