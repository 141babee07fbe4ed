package engine

import (
	"context"
	"testing"
	"time"
)

// fakeHandshaker records launch snapshots for assertions.
type fakeHandshaker struct {
	launches chan HandshakeSnapshot
}

func newFakeHandshaker() *fakeHandshaker {
	return &fakeHandshaker{launches: make(chan HandshakeSnapshot, 8)}
}

func (f *fakeHandshaker) Launch(snap HandshakeSnapshot, _ func(HandshakeResult)) {
	f.launches <- snap
}

func (f *fakeHandshaker) launched(timeout time.Duration) (HandshakeSnapshot, bool) {
	select {
	case snap := <-f.launches:
		return snap, true
	case <-time.After(timeout):
		return HandshakeSnapshot{}, false
	}
}

func TestStimulus_SpawnsHandshakeWhenStrongAndStable(t *testing.T) {
	hs := newFakeHandshaker()
	e := newTestEntity(t,
		WithHandshaker(hs),
		WithNeighbors([]Peer{{ID: "peer-1", Address: "http://localhost:7434"}}),
	)
	e.field = highEnergyField(16)
	startEntity(t, e)

	if err := e.SendStimulus(Stimulus{Vorticity: 0.9, SourceID: "s"}); err != nil {
		t.Fatal(err)
	}

	snap, ok := hs.launched(2 * time.Second)
	if !ok {
		t.Fatal("Expected a handshake launch for a strong stimulus on a stable entity")
	}
	if snap.EntityID != e.ID() {
		t.Errorf("Snapshot entity ID mismatch: %s", snap.EntityID)
	}
	if snap.Stability < 0.72 {
		t.Errorf("Snapshot stability %v below threshold", snap.Stability)
	}
	if len(snap.Peers) != 1 || snap.Peers[0].ID != "peer-1" {
		t.Errorf("Snapshot peers not copied: %+v", snap.Peers)
	}
}

func TestStimulus_NoHandshakeOnWeakVorticity(t *testing.T) {
	hs := newFakeHandshaker()
	e := newTestEntity(t,
		WithHandshaker(hs),
		WithNeighbors([]Peer{{ID: "peer-1", Address: "http://localhost:7434"}}),
	)
	e.field = highEnergyField(16)
	startEntity(t, e)

	// 0.7 is not strictly greater than the trigger.
	if err := e.SendStimulus(Stimulus{Vorticity: 0.7, SourceID: "s"}); err != nil {
		t.Fatal(err)
	}

	if _, ok := hs.launched(100 * time.Millisecond); ok {
		t.Error("Handshake launched for a stimulus at the trigger boundary")
	}
}

func TestStimulus_NoHandshakeWhenUnstable(t *testing.T) {
	hs := newFakeHandshaker()
	e := newTestEntity(t,
		WithHandshaker(hs),
		WithNeighbors([]Peer{{ID: "peer-1", Address: "http://localhost:7434"}}),
	)
	// Seeded low-energy field: stability well below 0.72.
	startEntity(t, e)

	if err := e.SendStimulus(Stimulus{Vorticity: 0.9, SourceID: "s"}); err != nil {
		t.Fatal(err)
	}

	if _, ok := hs.launched(100 * time.Millisecond); ok {
		t.Error("Handshake launched for an unstable entity")
	}
}

func TestHandshakeResult_AppendsCompletionAudit(t *testing.T) {
	e := newTestEntity(t)
	startEntity(t, e)
	ctx := context.Background()

	e.deliverHandshakeResult(HandshakeResult{
		PeerID:             "peer-9",
		PeerStability:      0.8,
		ExchangedAuditSize: 3,
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		audit, err := e.AuditLog(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(audit) == 1 {
			if audit[0].Message != "peer handshake completed: peer-9" {
				t.Errorf("Unexpected audit message %q", audit[0].Message)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("Handshake completion never reached the audit log")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandshakeResult_DroppedWhenSealed(t *testing.T) {
	e := newTestEntity(t)
	startEntity(t, e)
	ctx := context.Background()

	if err := e.TriggerEmergency("fatal"); err != nil {
		t.Fatal(err)
	}
	e.deliverHandshakeResult(HandshakeResult{PeerID: "late-peer"})

	audit, err := e.AuditLog(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Only the emergency entry; the late handshake result is dropped.
	if len(audit) != 1 {
		t.Errorf("Expected 1 audit entry, got %d", len(audit))
	}
}
