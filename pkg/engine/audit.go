package engine

import (
	"context"
	"time"

	"github.com/fieldgate/fieldgate/pkg/stores"
)

// storeWriteTimeout bounds the best-effort mirror of an audit entry
// into the persistence layer.
const storeWriteTimeout = 2 * time.Second

// appendAudit appends a timestamped entry to the in-memory audit log
// and mirrors it into the store when one is configured. The in-memory
// log is the source of truth; a store failure is logged and ignored so
// auditing never blocks governance.
func (e *Entity) appendAudit(message string) {
	entry := stores.AuditEntry{
		EntityID:         e.id,
		Timestamp:        e.now().UTC(),
		Message:          message,
		Stability:        e.stability,
		ContainmentRatio: e.containment,
	}
	e.audit = append(e.audit, entry)

	if e.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeWriteTimeout)
	defer cancel()
	if err := e.store.AppendAudit(ctx, &entry); err != nil {
		e.logger.Zerolog().Error().Err(err).Msg("Failed to persist audit entry")
	}
}

// copyAudit returns an independent copy of the audit log.
func (e *Entity) copyAudit() []stores.AuditEntry {
	out := make([]stores.AuditEntry, len(e.audit))
	copy(out, e.audit)
	return out
}
