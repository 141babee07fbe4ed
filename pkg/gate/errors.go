package gate

import (
	"errors"
	"fmt"
)

// Reason classifies why a transition request was denied. The first seven
// reasons map one-to-one onto the gate criteria; ReasonByzantineAttack is
// reserved for detected peer-protocol abuse and is never produced by the
// gate itself.
type Reason string

const (
	// ReasonDecoherenceSpin: the spin total drifted outside tolerance.
	ReasonDecoherenceSpin Reason = "DECOHERENCE_SPIN"

	// ReasonInsufficientVolume: the coherent volume is below the floor.
	ReasonInsufficientVolume Reason = "INSUFFICIENT_VOLUME"

	// ReasonEntanglementMismatch: the entropy is off the ln 2 target.
	ReasonEntanglementMismatch Reason = "ENTANGLEMENT_MISMATCH"

	// ReasonFirewallBreach: the containment ratio escaped its bound.
	ReasonFirewallBreach Reason = "FIREWALL_BREACH"

	// ReasonBackupCorruption: the backup integrity check failed.
	ReasonBackupCorruption Reason = "BACKUP_CORRUPTION"

	// ReasonConsensusFailure: fewer than five of five votes were cast.
	ReasonConsensusFailure Reason = "CONSENSUS_FAILURE"

	// ReasonSovereignVetoActive: the sovereign veto has not been lifted.
	ReasonSovereignVetoActive Reason = "SOVEREIGN_VETO_ACTIVE"

	// ReasonByzantineAttack: a peer misbehaved during the handshake
	// protocol. Handled by ignoring the peer, never raised by the gate.
	ReasonByzantineAttack Reason = "BYZANTINE_ATTACK"
)

// DenialError is a classified gate denial. Every denial is local and
// recoverable: it is reported verbatim to the requester and leaves the
// entity state unchanged.
type DenialError struct {
	// Reason is the denial classification.
	Reason Reason `json:"reason"`

	// Message is the human-readable denial message.
	Message string `json:"message"`

	// Target is the lifecycle state the rejected request named.
	Target State `json:"target,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *DenialError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s (target=%s)", e.Reason, e.Message, e.Target)
	}
	return fmt.Sprintf("[%s] %s", e.Reason, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *DenialError) Unwrap() error {
	return e.Err
}

// Is implements error equality for errors.Is: two denials match when
// their reasons match.
func (e *DenialError) Is(target error) bool {
	t, ok := target.(*DenialError)
	if !ok {
		return false
	}
	return e.Reason == t.Reason
}

// NewDenial creates a classified denial for the given reason.
func NewDenial(reason Reason, message string) *DenialError {
	return &DenialError{
		Reason:  reason,
		Message: message,
	}
}

// WithTarget adds the requested target state to a denial.
func (e *DenialError) WithTarget(target State) *DenialError {
	e.Target = target
	return e
}

// ReasonOf extracts the denial reason from an error chain. The second
// return value is false when the error is not a gate denial.
func ReasonOf(err error) (Reason, bool) {
	var e *DenialError
	if errors.As(err, &e) {
		return e.Reason, true
	}
	return "", false
}

// IsDenial reports whether err is a gate denial with the given reason.
func IsDenial(err error, reason Reason) bool {
	r, ok := ReasonOf(err)
	return ok && r == reason
}
