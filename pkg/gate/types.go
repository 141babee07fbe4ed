package gate

// State is an entity lifecycle state. Transitions between states happen
// only through gate approval, homeostatic escalation, or emergency
// containment; SealedEmergency is terminal.
type State string

const (
	// StateConfined is the initial lifecycle state of every entity.
	StateConfined State = "confined"

	// StateRotating is a governed operating state.
	StateRotating State = "rotating"

	// StateTransposed is a governed operating state.
	StateTransposed State = "transposed"

	// StateSealedGentle is the non-destructive protective state entered
	// by the homeostasis loop when stability collapses.
	StateSealedGentle State = "sealed_gentle"

	// StateSealedEmergency is the terminal state entered by emergency
	// containment. No further mutation is accepted once it is reached.
	StateSealedEmergency State = "sealed_emergency"
)

// Valid reports whether s is a known lifecycle state.
func (s State) Valid() bool {
	switch s {
	case StateConfined, StateRotating, StateTransposed, StateSealedGentle, StateSealedEmergency:
		return true
	}
	return false
}

// Sealed reports whether s is one of the protective sealed states.
func (s State) Sealed() bool {
	return s == StateSealedGentle || s == StateSealedEmergency
}

// VoteCount is the fixed size of the consensus ballot carried by every
// transition request.
const VoteCount = 5

// Request is an immutable transition-request snapshot. It is evaluated
// as a whole and never partially applied.
type Request struct {
	// Target is the lifecycle state the requester wants to enter.
	Target State `json:"target"`

	// SpinTotal must sit within SpinTolerance of 1.0.
	SpinTotal float64 `json:"spin_total"`

	// CoherenceVolume must exceed MinCoherenceVolume.
	CoherenceVolume float64 `json:"coherence_volume"`

	// EntanglementEntropy must sit within EntropyTolerance of ln 2.
	EntanglementEntropy float64 `json:"entanglement_entropy"`

	// Votes is the consensus ballot; all five must be true.
	Votes [VoteCount]bool `json:"votes"`

	// VetoReleased indicates the sovereign veto has been lifted.
	VetoReleased bool `json:"veto_released"`

	// BackupVerified carries the opaque integrity-check result supplied
	// by the external backup verifier.
	BackupVerified bool `json:"backup_verified"`
}

// Outcome is the effect of an approved transition. It can only be
// produced by Evaluate after all seven criteria pass.
type Outcome struct {
	// State is the lifecycle state after the transition.
	State State

	// ContainmentRatio is the post-transition containment ratio, already
	// clamped to the [0, MaxContainmentRatio] invariant.
	ContainmentRatio float64
}
