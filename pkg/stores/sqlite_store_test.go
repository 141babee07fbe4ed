package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore creates an initialized, migrated store backed by a
// temporary file.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := NewSQLiteStore(Config{Path: path})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Failed to init store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate store: %v", err)
	}
	return store
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestAppendAudit_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		EntityID:         "entity-1",
		Timestamp:        time.Now().UTC().Truncate(time.Millisecond),
		Message:          "transition denied: CONSENSUS_FAILURE",
		Stability:        0.74,
		ContainmentRatio: 0.05,
	}

	if err := store.AppendAudit(ctx, entry); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if entry.ID == 0 {
		t.Error("Expected entry ID to be set after append")
	}

	entries, err := store.ListAudit(ctx, "entity-1", 10, 0)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	got := entries[0]
	if got.Message != entry.Message {
		t.Errorf("Expected message %q, got %q", entry.Message, got.Message)
	}
	if got.Stability != entry.Stability {
		t.Errorf("Expected stability %v, got %v", entry.Stability, got.Stability)
	}
	if got.ContainmentRatio != entry.ContainmentRatio {
		t.Errorf("Expected ratio %v, got %v", entry.ContainmentRatio, got.ContainmentRatio)
	}
}

func TestListAudit_AppendOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := &AuditEntry{
			EntityID:  "entity-1",
			Timestamp: time.Now().UTC(),
			Message:   string(rune('a' + i)),
		}
		if err := store.AppendAudit(ctx, entry); err != nil {
			t.Fatalf("Failed to append entry %d: %v", i, err)
		}
	}

	entries, err := store.ListAudit(ctx, "entity-1", 10, 0)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("Expected 5 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].ID <= entries[i-1].ID {
			t.Error("Entries not in append order")
		}
	}
}

func TestListAudit_FiltersByEntity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "a", "b"} {
		if err := store.AppendAudit(ctx, &AuditEntry{
			EntityID:  id,
			Timestamp: time.Now().UTC(),
			Message:   "tick",
		}); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.ListAudit(ctx, "a", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries for entity a, got %d", len(entries))
	}

	count, err := store.CountAudit(ctx, "b")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Expected 1 entry for entity b, got %d", count)
	}

	// An empty entity ID lists everything.
	all, err := store.ListAudit(ctx, "", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 entries across entities, got %d", len(all))
	}
}

func TestHealthCheck(t *testing.T) {
	store := newTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("Health check failed: %v", err)
	}

	uninitialized := &SQLiteStore{path: "x"}
	if err := uninitialized.HealthCheck(context.Background()); err == nil {
		t.Error("Expected health check failure for uninitialized store")
	}
}
