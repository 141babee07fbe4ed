package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/fieldgate/fieldgate/pkg/config"
	"github.com/fieldgate/fieldgate/pkg/field"
	"github.com/fieldgate/fieldgate/pkg/gate"
	"github.com/fieldgate/fieldgate/pkg/telemetry"
)

// testEntityConfig returns a config with a tick interval long enough
// that timer-driven ticks never interfere with a test.
func testEntityConfig() config.EntityConfig {
	return config.EntityConfig{
		FieldSize:          16,
		Seed:               1,
		TickInterval:       time.Hour,
		CriticalThreshold:  0.72,
		SecondaryFloor:     0.65,
		InitialContainment: 0.05,
		VorticityTrigger:   0.7,
		PeerTimeout:        time.Second,
	}
}

// newTestEntity creates an unstarted entity with a quiet logger.
func newTestEntity(t *testing.T, opts ...Option) *Entity {
	t.Helper()
	return New(testEntityConfig(), telemetry.NewDisabledLogger(), opts...)
}

// startEntity starts an entity and registers cleanup.
func startEntity(t *testing.T, e *Entity) {
	t.Helper()
	e.Start()
	t.Cleanup(e.Stop)
}

// highEnergyField returns a field whose stability score clears the
// critical threshold.
func highEnergyField(n int) field.Field {
	f := make(field.Field, n)
	for i := range f {
		f[i] = 1.0
	}
	return f
}

// passingRequest clears all seven gate criteria.
func passingRequest(target gate.State) gate.Request {
	return gate.Request{
		Target:              target,
		SpinTotal:           1.0,
		CoherenceVolume:     1e-46,
		EntanglementEntropy: math.Ln2,
		Votes:               [gate.VoteCount]bool{true, true, true, true, true},
		VetoReleased:        true,
		BackupVerified:      true,
	}
}

func TestNew_InitialState(t *testing.T) {
	e := newTestEntity(t)

	if e.ID() == "" {
		t.Error("Expected a generated entity ID")
	}
	if e.state != gate.StateConfined {
		t.Errorf("Expected initial state %s, got %s", gate.StateConfined, e.state)
	}
	if e.containment != 0.05 {
		t.Errorf("Expected initial containment 0.05, got %v", e.containment)
	}
	if len(e.field) != 16 {
		t.Errorf("Expected field length 16, got %d", len(e.field))
	}
	if e.stability < 0 || e.stability >= 1 {
		t.Errorf("Initial stability %v outside [0,1)", e.stability)
	}
}

func TestRequestTransition_Allow(t *testing.T) {
	e := newTestEntity(t)
	e.field = highEnergyField(16)
	startEntity(t, e)

	ctx := context.Background()
	stability, err := e.RequestTransition(ctx, passingRequest(gate.StateRotating))
	if err != nil {
		t.Fatalf("Expected approval, got %v", err)
	}
	if stability <= 0 || stability >= 1 {
		t.Errorf("Returned stability %v outside (0,1)", stability)
	}

	snap, err := e.GetSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != string(gate.StateRotating) {
		t.Errorf("Expected state %s, got %s", gate.StateRotating, snap.State)
	}
	// 0.05 * 1.5 under the rotating multiplier.
	if math.Abs(snap.ContainmentRatio-0.075) > 1e-12 {
		t.Errorf("Expected containment 0.075, got %v", snap.ContainmentRatio)
	}
	if snap.AuditSize != 1 {
		t.Errorf("Expected 1 audit entry after approval, got %d", snap.AuditSize)
	}
}

func TestRequestTransition_DenyLeavesStateUnchanged(t *testing.T) {
	e := newTestEntity(t)
	startEntity(t, e)
	ctx := context.Background()

	req := passingRequest(gate.StateTransposed)
	req.Votes[4] = false

	_, err := e.RequestTransition(ctx, req)
	if !gate.IsDenial(err, gate.ReasonConsensusFailure) {
		t.Fatalf("Expected %s, got %v", gate.ReasonConsensusFailure, err)
	}

	snap, err := e.GetSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != string(gate.StateConfined) {
		t.Errorf("Denied transition mutated state to %s", snap.State)
	}
	if snap.ContainmentRatio != 0.05 {
		t.Errorf("Denied transition mutated containment to %v", snap.ContainmentRatio)
	}

	audit, err := e.AuditLog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(audit) != 1 {
		t.Fatalf("Expected 1 audit entry for the denial, got %d", len(audit))
	}
	if audit[0].Message != "transition denied: CONSENSUS_FAILURE" {
		t.Errorf("Unexpected audit message %q", audit[0].Message)
	}
}

func TestRequestTransition_OrderThroughEntity(t *testing.T) {
	// Failing checks 1 and 6 together must surface the spin reason.
	e := newTestEntity(t)
	startEntity(t, e)

	req := passingRequest(gate.StateRotating)
	req.SpinTotal = 0.5
	req.Votes[0] = false

	_, err := e.RequestTransition(context.Background(), req)
	if !gate.IsDenial(err, gate.ReasonDecoherenceSpin) {
		t.Errorf("Expected %s, got %v", gate.ReasonDecoherenceSpin, err)
	}
}

func TestSendStimulus_EvolvesField(t *testing.T) {
	e := newTestEntity(t)
	startEntity(t, e)
	ctx := context.Background()

	before, err := e.GetStability(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// Strong repeated stimuli pump energy into the field.
	for i := 0; i < 20; i++ {
		if err := e.SendStimulus(Stimulus{Vorticity: 5.0, SourceID: "test"}); err != nil {
			t.Fatal(err)
		}
	}

	after, err := e.GetStability(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after <= before {
		t.Errorf("Expected stability to rise under strong stimuli: before=%v after=%v", before, after)
	}
}

func TestEmergencyContainment(t *testing.T) {
	e := newTestEntity(t)
	startEntity(t, e)
	ctx := context.Background()

	if err := e.TriggerEmergency("decoherence failure reported by driver"); err != nil {
		t.Fatal(err)
	}

	// Mutations are refused after sealing.
	_, err := e.RequestTransition(ctx, passingRequest(gate.StateRotating))
	if !errors.Is(err, ErrEmergencySealed) {
		t.Errorf("Expected ErrEmergencySealed, got %v", err)
	}

	// Reads keep working.
	snap, err := e.GetSnapshot(ctx)
	if err != nil {
		t.Fatalf("Stability query must survive sealing: %v", err)
	}
	if snap.State != string(gate.StateSealedEmergency) {
		t.Errorf("Expected state %s, got %s", gate.StateSealedEmergency, snap.State)
	}

	audit, err := e.AuditLog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(audit) != 1 {
		t.Fatalf("Expected 1 audit entry, got %d", len(audit))
	}

	// A second trigger is a no-op: the flag is irreversible, not
	// re-appendable.
	if err := e.TriggerEmergency("again"); err != nil {
		t.Fatal(err)
	}
	audit, err = e.AuditLog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(audit) != 1 {
		t.Errorf("Repeated emergency trigger appended audit entries: %d", len(audit))
	}
}

func TestEmergency_DropsQueuedStimuli(t *testing.T) {
	e := newTestEntity(t)
	startEntity(t, e)
	ctx := context.Background()

	if err := e.TriggerEmergency("fatal"); err != nil {
		t.Fatal(err)
	}
	if err := e.SendStimulus(Stimulus{Vorticity: 9.0, SourceID: "late"}); err != nil {
		t.Fatal(err)
	}

	snap, err := e.GetSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}

	// The stimulus delivered after sealing must not have evolved the
	// field; the stability recorded at seal time is unchanged.
	again, err := e.GetStability(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again != snap.Stability {
		t.Errorf("Sealed entity mutated state: %v != %v", again, snap.Stability)
	}
}

func TestAppendAudit_UsesEntityClock(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	e := newTestEntity(t, withClock(func() time.Time { return fixed }))
	startEntity(t, e)
	ctx := context.Background()

	if err := e.TriggerEmergency("clock check"); err != nil {
		t.Fatal(err)
	}

	audit, err := e.AuditLog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(audit) != 1 {
		t.Fatalf("Expected 1 audit entry, got %d", len(audit))
	}
	if !audit[0].Timestamp.Equal(fixed) {
		t.Errorf("Expected timestamp %v, got %v", fixed, audit[0].Timestamp)
	}
}

func TestStop_UnblocksCallers(t *testing.T) {
	e := newTestEntity(t)
	e.Start()
	e.Stop()

	if err := e.SendStimulus(Stimulus{Vorticity: 1}); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
	if _, err := e.GetStability(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Expected ErrStopped, got %v", err)
	}
}
