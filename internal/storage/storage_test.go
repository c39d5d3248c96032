package storage

import (
	"context"
	"slices"
	"testing"
	"time"
)

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatalf("empty store returned a value")
	}

	_ = kv.Set(ctx, "k", "v1")
	_ = kv.Set(ctx, "k", "v2")
	if v, ok, _ := kv.Get(ctx, "k"); !ok || v != "v2" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}

	_ = kv.Remove(ctx, "k")
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatalf("removed key still present")
	}
}

func TestMessageStorageUpsertReturnsPrevious(t *testing.T) {
	s := NewMessageStorage()

	if _, had := s.UpsertAndGetPrev(1, 10); had {
		t.Fatalf("first upsert reported a previous message")
	}

	prev, had := s.UpsertAndGetPrev(1, 11)
	if !had || prev.MessageID != 10 || prev.ChatID != 1 {
		t.Fatalf("prev = %+v, had = %v", prev, had)
	}

	if m, ok := s.Get(1); !ok || m.MessageID != 11 {
		t.Fatalf("Get() = %+v, %v", m, ok)
	}

	s.Delete(1)
	if _, ok := s.Get(1); ok {
		t.Fatalf("deleted message still tracked")
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestWorkspaceStorageGetOrStore(t *testing.T) {
	s := NewWorkspaceStorage[*int]()

	calls := 0
	create := func() *int {
		calls++
		v := calls
		return &v
	}

	a := s.GetOrStore(1, create)
	b := s.GetOrStore(1, create)
	if a != b || calls != 1 {
		t.Fatalf("GetOrStore created %d values", calls)
	}

	if got, ok := s.Get(1); !ok || got != a {
		t.Fatalf("Get() = %v, %v", got, ok)
	}
	if _, ok := s.Get(2); ok {
		t.Fatalf("Get(2) found a value")
	}

	s.Delete(1)
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after delete", s.Len())
	}
}

func TestWorkspaceStorageEvictIdle(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewWorkspaceStorage[string]()
	s.now = clock.now

	s.GetOrStore(1, func() string { return "old" })
	clock.t = clock.t.Add(30 * time.Minute)
	s.GetOrStore(2, func() string { return "new" })

	clock.t = clock.t.Add(45 * time.Minute)
	evicted := s.EvictIdle(time.Hour)
	if !slices.Equal(evicted, []int64{1}) {
		t.Fatalf("evicted = %v, want [1]", evicted)
	}

	// Get refreshes last use.
	clock.t = clock.t.Add(10 * time.Minute)
	s.Get(2)
	clock.t = clock.t.Add(55 * time.Minute)
	if evicted := s.EvictIdle(time.Hour); len(evicted) != 0 {
		t.Fatalf("recently used workspace evicted: %v", evicted)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}
