package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/guardpost/guardpost/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestStoreCreateListDelete(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "owner-a", Listing{Title: "Door supervisor", Pay: "£14/hr"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == "" || first.Source != SourceLocal || !first.Rate.Valid {
		t.Errorf("created = %+v", first)
	}
	second, _ := store.Create(ctx, "owner-a", Listing{Title: "CCTV operator"})
	store.Create(ctx, "owner-b", Listing{Title: "Steward"})

	list, err := store.List(ctx, "owner-a")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("expected newest first for owner-a, got %v", ids(list))
	}

	got, err := store.Get(ctx, "owner-a", first.ID)
	if err != nil || got.Title != "Door supervisor" {
		t.Errorf("Get = %+v, %v", got, err)
	}
	if _, err := store.Get(ctx, "owner-b", first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("other owner Get err = %v, want ErrNotFound", err)
	}

	if err := store.Delete(ctx, "owner-b", first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("other owner Delete err = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "owner-a", first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ = store.List(ctx, "owner-a")
	if len(list) != 1 {
		t.Errorf("expected 1 listing after delete, got %d", len(list))
	}
}

func TestStoreCreateValidates(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.Create(context.Background(), "o", Listing{}); err == nil {
		t.Error("expected validation error for missing title")
	}
}

func TestStoreReassign(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Create(ctx, "before", Listing{Title: "Door supervisor"})
	store.Create(ctx, "other", Listing{Title: "Steward"})

	if err := store.Reassign(ctx, "before", "after"); err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if list, _ := store.List(ctx, "before"); len(list) != 0 {
		t.Errorf("old owner still has %d listings", len(list))
	}
	if list, _ := store.List(ctx, "after"); len(list) != 1 || list[0].Title != "Door supervisor" {
		t.Errorf("new owner listings = %v", ids(list))
	}
	if list, _ := store.List(ctx, "other"); len(list) != 1 {
		t.Error("unrelated owner should be untouched")
	}
}
