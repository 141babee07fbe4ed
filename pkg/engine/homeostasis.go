package engine

import (
	"github.com/fieldgate/fieldgate/pkg/field"
	"github.com/fieldgate/fieldgate/pkg/gate"
)

// Homeostasis tuning constants.
const (
	// turbulenceThreshold separates the tightening and loosening
	// branches. The boundary itself tightens: turbulence of exactly 0.5
	// is treated as unstable.
	turbulenceThreshold = 0.5

	// tightenFactor multiplies the containment ratio under turbulence.
	tightenFactor = 1.05

	// loosenFactor relaxes the containment ratio when the field is calm.
	loosenFactor = 0.98

	// ratioFloor is the lowest the loosening branch will drive the
	// containment ratio.
	ratioFloor = 0.05
)

// homeostasisTick is the periodic self-regulation step. It tightens or
// loosens the containment ratio based on field turbulence, refreshes
// the stability score, and escalates to a gentle (non-destructive) seal
// when stability collapses below both configured thresholds. The
// escalation is protective, not governed: it does not pass through the
// transition gate.
func (e *Entity) homeostasisTick() {
	turbulence := field.Turbulence(e.field)

	branch := "loosen"
	if turbulence >= turbulenceThreshold {
		branch = "tighten"
		e.containment = gate.ClampRatio(e.containment * tightenFactor)
	} else {
		loosened := e.containment * loosenFactor
		if loosened < ratioFloor {
			loosened = ratioFloor
		}
		e.containment = gate.ClampRatio(loosened)
	}

	e.stability = field.Stability(e.field)

	if e.metrics != nil {
		e.metrics.RecordHomeostasisTick(e.id, branch)
		e.metrics.SetEntityGauges(e.id, e.stability, e.containment)
	}

	e.logger.Zerolog().Trace().
		Float64("turbulence", turbulence).
		Str("branch", branch).
		Float64("stability", e.stability).
		Float64("containment_ratio", e.containment).
		Msg("Homeostasis tick")

	if e.stability < e.cfg.CriticalThreshold && e.stability < e.cfg.SecondaryFloor && !e.state.Sealed() {
		e.state = gate.StateSealedGentle
		if e.metrics != nil {
			e.metrics.RecordSealEvent(e.id, "gentle")
		}
		e.appendAudit("stability collapse: sealed gentle")
		e.logger.Zerolog().Warn().
			Float64("stability", e.stability).
			Msg("Stability collapsed below secondary floor, entity sealed")
	}
}
