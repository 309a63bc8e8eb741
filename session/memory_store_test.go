package session

import (
	"context"
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	id, err := NewID()
	if err != nil {
		t.Fatalf("NewID() error = %v", err)
	}
	if len(id) < 40 {
		t.Errorf("id %q looks too short for 32 random bytes", id)
	}
	other, _ := NewID()
	if id == other {
		t.Error("two ids came out identical")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	rec := Session{ID: "s1", AccountID: 9, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.AccountID != 9 {
		t.Fatalf("Get() = %+v, want account 9", got)
	}

	if got, _ := store.Get(ctx, "missing"); got != nil {
		t.Errorf("Get() on unknown id = %+v, want nil", got)
	}

	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got, _ := store.Get(ctx, "s1"); got != nil {
		t.Error("record survived Delete()")
	}
	// deleting twice is fine
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Errorf("Delete() twice error = %v", err)
	}
}

func TestMemoryStore_ExpiredRecord(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	rec := Session{ID: "dead", AccountID: 9, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got, _ := store.Get(ctx, "dead"); got != nil {
		t.Errorf("Get() returned expired record %+v", got)
	}
}
