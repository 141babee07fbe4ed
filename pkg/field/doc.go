// Package field implements the oscillation field owned by a fieldgate
// entity: seeded initialization, deterministic evolution under stimulus,
// and the derived stability and turbulence metrics that drive gating and
// homeostasis decisions.
package field
