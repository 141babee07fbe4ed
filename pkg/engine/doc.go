// Package engine implements the fieldgate entity: a single-writer actor
// that owns an oscillation field and its derived metrics, gates every
// requested lifecycle transition behind the seven-criterion admission
// gate, runs the self-rescheduling homeostasis loop, and escalates to
// protective sealed states when stability collapses.
//
// Every read used in a decision and every mutation is serialized through
// the entity's owner goroutine. Stimuli, homeostasis ticks, transition
// requests, and handshake completions are messages delivered to a single
// mailbox; none of them interleave for the same entity. Detached peer
// handshakes operate on immutable snapshots and report back only via
// messages.
package engine
