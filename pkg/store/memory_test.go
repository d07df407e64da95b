package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stepgraph/stepgraph/pkg/graphio"
)

func testLayout(id string) graphio.Layout {
	return graphio.Layout{
		ID:     id,
		Width:  1280,
		Height: 1024,
		Points: []graphio.Point{{ID: "head", X: 50, Y: 512, XRegion: 1, YRegion: 1}},
	}
}

func TestMemoryStore_SaveAssignsID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Save(ctx, testLayout(""))
	if err != nil {
		t.Fatalf("Save() = %v", err)
	}
	if id == "" {
		t.Fatal("Save() did not assign an ID")
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if got.ID != id {
		t.Errorf("stored layout ID = %s, want %s", got.ID, id)
	}
}

func TestMemoryStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	l := testLayout("fixed-id")
	if _, err := s.Save(ctx, l); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	l.Width = 1440
	if _, err := s.Save(ctx, l); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	got, err := s.Get(ctx, "fixed-id")
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if got.Width != 1440 {
		t.Errorf("replaced layout width = %d, want 1440", got.Width)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("List() has %d layouts, want 1", len(all))
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ListSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, id := range []string{"c", "a", "b"} {
		if _, err := s.Save(ctx, testLayout(id)); err != nil {
			t.Fatalf("Save(%s) = %v", id, err)
		}
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(all) != 3 || all[0].ID != "a" || all[1].ID != "b" || all[2].ID != "c" {
		t.Errorf("List() order = %v, want [a b c]", []string{all[0].ID, all[1].ID, all[2].ID})
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, _ := s.Save(ctx, testLayout(""))

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() = %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) = %v, want ErrNotFound", err)
	}
}
