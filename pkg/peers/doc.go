// Package peers implements the opportunistic peer negotiation protocol
// and the peer-facing HTTP surface of a fieldgate node.
//
// Handshakes are best-effort and fully detached: a task spawned for a
// strong stimulus queries the peer's stability, optionally performs a
// one-shot information exchange, and reports completion back to the
// owning entity as a message. Any failure terminates the task silently;
// a misbehaving peer is classified as byzantine and ignored.
package peers
