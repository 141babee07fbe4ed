package field

import (
	"math/rand"
)

const (
	// DefaultSize is the default number of oscillators in a field.
	DefaultSize = 1024

	// dampingGain scales how strongly the containment ratio suppresses
	// field energy during evolution.
	dampingGain = 0.01

	// stimulusGain scales how strongly a stimulus feeds energy into
	// every oscillator.
	stimulusGain = 0.05

	// initScale bounds the amplitude of freshly initialized oscillators.
	initScale = 0.1
)

// Field is an ordered, fixed-length sequence of oscillator amplitudes.
// Its length is fixed at initialization and never changes afterwards.
type Field []float64

// Initialize returns a new field of the given size filled with seeded
// normal-distributed amplitudes scaled by initScale. This is the only
// non-deterministic step in an entity's lifetime; it runs exactly once,
// at creation.
func Initialize(size int, seed int64) Field {
	if size <= 0 {
		size = DefaultSize
	}

	rng := rand.New(rand.NewSource(seed))
	f := make(Field, size)
	for i := range f {
		f[i] = rng.NormFloat64() * initScale
	}
	return f
}

// Evolve advances the field one step in place. Each amplitude is damped
// by the containment ratio and nudged by the stimulus magnitude:
//
//	x' = x*(1 - ratio*dampingGain) + magnitude*stimulusGain
//
// Evolution is deterministic given its inputs and carries no hidden state.
func (f Field) Evolve(stimulusMagnitude, containmentRatio float64) {
	damping := 1 - containmentRatio*dampingGain
	drive := stimulusMagnitude * stimulusGain
	for i, x := range f {
		f[i] = x*damping + drive
	}
}

// Clone returns an independent copy of the field, used to hand immutable
// snapshots to detached tasks.
func (f Field) Clone() Field {
	out := make(Field, len(f))
	copy(out, f)
	return out
}
