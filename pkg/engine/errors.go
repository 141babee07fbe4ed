package engine

import "errors"

var (
	// ErrEmergencySealed is returned for any mutating request delivered
	// to an entity that has entered emergency containment. The state is
	// terminal; only reads are served.
	ErrEmergencySealed = errors.New("entity is emergency sealed")

	// ErrStopped is returned when the entity's owner goroutine has shut
	// down and can no longer serve requests.
	ErrStopped = errors.New("entity is stopped")
)
