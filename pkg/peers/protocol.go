package peers

import (
	"fmt"
)

// StabilityResponse is the reply to a peer stability query.
type StabilityResponse struct {
	EntityID  string  `json:"entity_id"`
	Stability float64 `json:"stability"`
}

// Validate checks that a peer's stability reply is well-formed. A reply
// outside the open (0,1) interval is protocol abuse, not a transport
// failure, and is classified as byzantine by the caller.
func (r *StabilityResponse) Validate() error {
	if r.EntityID == "" {
		return fmt.Errorf("missing entity_id")
	}
	if r.Stability <= 0 || r.Stability >= 1 {
		return fmt.Errorf("stability %v outside (0,1)", r.Stability)
	}
	return nil
}

// ExchangeRequest is the one-shot information exchange payload sent to
// a peer that passed the stability threshold.
type ExchangeRequest struct {
	EntityID  string  `json:"entity_id"`
	Stability float64 `json:"stability"`
	AuditSize int     `json:"audit_size"`
}

// Validate checks an incoming exchange payload.
func (r *ExchangeRequest) Validate() error {
	if r.EntityID == "" {
		return fmt.Errorf("missing entity_id")
	}
	if r.Stability <= 0 || r.Stability >= 1 {
		return fmt.Errorf("stability %v outside (0,1)", r.Stability)
	}
	if r.AuditSize < 0 {
		return fmt.Errorf("negative audit_size")
	}
	return nil
}

// ExchangeResponse acknowledges a one-shot exchange.
type ExchangeResponse struct {
	Accepted bool `json:"accepted"`
}
