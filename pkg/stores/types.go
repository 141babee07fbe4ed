package stores

import (
	"context"
	"time"
)

// AuditEntry is one append-only, timestamp-ordered audit record. Entries
// are never mutated or reordered after append.
type AuditEntry struct {
	ID               int64     `json:"id"`
	EntityID         string    `json:"entity_id"`
	Timestamp        time.Time `json:"timestamp"`
	Message          string    `json:"message"`
	Stability        float64   `json:"stability"`
	ContainmentRatio float64   `json:"containment_ratio"`
}

// Store defines the interface for audit log persistence.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Audit operations
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	ListAudit(ctx context.Context, entityID string, limit, offset int) ([]*AuditEntry, error)
	CountAudit(ctx context.Context, entityID string) (int64, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
