package sessions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoLastDraft(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range []Session{
		{ID: "old", UserID: "u1", Status: StatusDraft, CreatedAt: base},
		{ID: "new", UserID: "u1", Status: StatusDraft, CreatedAt: base.Add(time.Hour)},
		{ID: "final", UserID: "u1", Status: StatusFinal, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "other", UserID: "u2", Status: StatusDraft, CreatedAt: base.Add(3 * time.Hour)},
	} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.LastDraft(ctx, "u1")
	if err != nil {
		t.Fatalf("LastDraft: %v", err)
	}
	if got.ID != "new" {
		t.Fatalf("expected newest draft, got %s", got.ID)
	}
	if _, err := repo.LastDraft(ctx, "u3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoUpdateMissing(t *testing.T) {
	repo := NewMemoryRepo()
	if err := repo.Update(context.Background(), Session{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	ids := []string{"a1", "a2"}
	if err := repo.Create(ctx, Session{ID: "s1", ActivityIDs: ids}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	ids[0] = "mutated"

	got, _ := repo.Get(ctx, "s1")
	if got.ActivityIDs[0] != "a1" {
		t.Fatalf("stored session shares caller slice")
	}
	got.ActivityIDs[1] = "mutated"
	again, _ := repo.Get(ctx, "s1")
	if again.ActivityIDs[1] != "a2" {
		t.Fatalf("returned session shares stored slice")
	}
}

func TestMemoryRepoHonoursContext(t *testing.T) {
	repo := NewMemoryRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := repo.Get(ctx, "s1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
