package gate

import (
	"math"
)

// Gate criterion constants. The numeric values are part of the admission
// contract and are not configurable.
const (
	// SpinTolerance is the allowed deviation of the spin total from 1.0.
	SpinTolerance = 0.01

	// MinCoherenceVolume is the exclusive lower bound on coherent volume.
	MinCoherenceVolume = 3.896e-47

	// EntropyTarget is ln 2, the required entanglement entropy.
	EntropyTarget = math.Ln2

	// EntropyTolerance is the allowed deviation from EntropyTarget.
	EntropyTolerance = 1e-4

	// MaxContainmentRatio is the upper bound of the containment invariant.
	MaxContainmentRatio = 0.9
)

// containmentMultipliers is the canonical per-target effect table applied
// on approval. Targets absent from the table keep the ratio unchanged.
var containmentMultipliers = map[State]float64{
	StateConfined:   1.0,
	StateRotating:   1.5,
	StateTransposed: 2.0,
}

// Evaluate runs the seven ordered admission criteria against a request
// snapshot and the entity's current containment ratio. The order is fixed
// and short-circuits on the first failure; callers rely on which reason
// is reported first, so the order is itself part of the contract.
//
// On full pass Evaluate returns the post-transition Outcome with the
// per-target containment multiplier applied and clamped to the
// [0, MaxContainmentRatio] invariant. On any failure it returns a nil
// Outcome and the specific denial; an Outcome cannot be obtained any
// other way.
func Evaluate(req Request, containmentRatio float64) (*Outcome, error) {
	// 1. Spin total.
	if math.Abs(req.SpinTotal-1.0) > SpinTolerance {
		return nil, NewDenial(ReasonDecoherenceSpin,
			"spin total outside coherence tolerance").WithTarget(req.Target)
	}

	// 2. Coherent volume.
	if req.CoherenceVolume <= MinCoherenceVolume {
		return nil, NewDenial(ReasonInsufficientVolume,
			"coherent volume below minimum").WithTarget(req.Target)
	}

	// 3. Entanglement entropy.
	if math.Abs(req.EntanglementEntropy-EntropyTarget) > EntropyTolerance {
		return nil, NewDenial(ReasonEntanglementMismatch,
			"entanglement entropy off the ln2 target").WithTarget(req.Target)
	}

	// 4. Containment bound.
	if containmentRatio < 0 || containmentRatio > MaxContainmentRatio {
		return nil, NewDenial(ReasonFirewallBreach,
			"containment ratio outside firewall bound").WithTarget(req.Target)
	}

	// 5. Backup integrity.
	if !req.BackupVerified {
		return nil, NewDenial(ReasonBackupCorruption,
			"backup integrity verification failed").WithTarget(req.Target)
	}

	// 6. Consensus: exactly five of five.
	for _, vote := range req.Votes {
		if !vote {
			return nil, NewDenial(ReasonConsensusFailure,
				"consensus requires all five votes").WithTarget(req.Target)
		}
	}

	// 7. Sovereign override.
	if !req.VetoReleased {
		return nil, NewDenial(ReasonSovereignVetoActive,
			"sovereign veto has not been released").WithTarget(req.Target)
	}

	return &Outcome{
		State:            req.Target,
		ContainmentRatio: applyEffect(req.Target, containmentRatio),
	}, nil
}

// applyEffect applies the per-target containment multiplier, clamped to
// the containment invariant.
func applyEffect(target State, ratio float64) float64 {
	if m, ok := containmentMultipliers[target]; ok {
		ratio *= m
	}
	return ClampRatio(ratio)
}

// ClampRatio clamps a containment ratio into [0, MaxContainmentRatio].
// Every write of the ratio goes through this clamp.
func ClampRatio(ratio float64) float64 {
	if ratio < 0 {
		return 0
	}
	if ratio > MaxContainmentRatio {
		return MaxContainmentRatio
	}
	return ratio
}
