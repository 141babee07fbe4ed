package engine

import (
	"github.com/fieldgate/fieldgate/pkg/gate"
	"github.com/fieldgate/fieldgate/pkg/stores"
)

// Stimulus is an external excitation delivered to an entity. Vorticity
// doubles as the stimulus magnitude fed into field evolution and as the
// trigger strength for the opportunistic peer handshake.
type Stimulus struct {
	Vorticity float64 `json:"vorticity"`
	SourceID  string  `json:"source_id"`
}

// Peer is a reference to a peer entity: identity and address only,
// never ownership.
type Peer struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// HandshakeResult is the internal completion message a detached
// handshake task delivers back into the owner mailbox.
type HandshakeResult struct {
	// PeerID identifies the peer the handshake completed with.
	PeerID string

	// PeerStability is the stability score the peer reported.
	PeerStability float64

	// ExchangedAuditSize is the local audit-log size sent to the peer.
	ExchangedAuditSize int
}

// HandshakeSnapshot is the immutable state a detached handshake task
// operates on, taken at spawn time.
type HandshakeSnapshot struct {
	EntityID  string
	Stability float64
	AuditSize int
	Peers     []Peer
}

// Handshaker launches detached peer negotiations. Implementations must
// never block the caller and must deliver results exclusively through
// the provided sink; failures terminate the task silently.
type Handshaker interface {
	Launch(snapshot HandshakeSnapshot, deliver func(HandshakeResult))
}

// Snapshot is a read-only view of an entity's observable state.
type Snapshot struct {
	ID               string  `json:"id"`
	State            string  `json:"state"`
	Stability        float64 `json:"stability"`
	ContainmentRatio float64 `json:"containment_ratio"`
	AuditSize        int     `json:"audit_size"`
}

// message is the internal mailbox envelope. Exactly one field is set.
type message struct {
	stimulus   *Stimulus
	transition *transitionMsg
	handshake  *HandshakeResult
	emergency  *emergencyMsg
	query      *queryMsg
}

// transitionMsg carries a transition request and its synchronous reply
// channel. The reply is sent exactly once.
type transitionMsg struct {
	req   gate.Request
	reply chan transitionReply
}

type transitionReply struct {
	stability float64
	err       error
}

// emergencyMsg triggers emergency containment.
type emergencyMsg struct {
	reason string
}

// queryMsg serves non-mutating reads. Queries keep working after the
// entity is sealed.
type queryMsg struct {
	snapshot chan Snapshot
	audit    chan []stores.AuditEntry
}
