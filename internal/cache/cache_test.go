package cache

import (
	"context"
	"testing"
	"time"
)

func TestKey_Canonicalization(t *testing.T) {
	a := Key("GetCategories", map[string]string{"parent": "5", "depth": "3"})
	b := Key("GetCategories", map[string]string{"depth": "3", "parent": "5"})

	if a != b {
		t.Errorf("identical logical requests produced different keys: %q vs %q", a, b)
	}

	if a != "GetCategories|depth=3|parent=5" {
		t.Errorf("unexpected canonical key: %q", a)
	}
}

func TestKey_DistinguishesOperations(t *testing.T) {
	params := map[string]string{"category": "293"}

	a := Key("GetCategoryFeatures", params)
	b := Key("GetCategorySpecifics", params)

	if a == b {
		t.Errorf("different operations share a key: %q", a)
	}
}

func TestKey_NoParams(t *testing.T) {
	if got := Key("GetCategories", nil); got != "GetCategories" {
		t.Errorf("expected bare operation name, got %q", got)
	}
}

func TestMemory_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	type payload struct {
		Name  string
		Count int
	}

	if err := store.Put(ctx, "k", payload{Name: "categories", Count: 3}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	var got payload
	hit, err := store.Get(ctx, "k", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !hit {
		t.Fatal("expected a cache hit")
	}
	if got.Name != "categories" || got.Count != 3 {
		t.Errorf("round trip mangled value: %+v", got)
	}
}

func TestMemory_MissOnAbsent(t *testing.T) {
	var got string
	hit, err := NewMemory().Get(context.Background(), "nope", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if hit {
		t.Error("expected a miss for an absent key")
	}
}

func TestMemory_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	if err := store.Put(ctx, "k", "value", FeeTTL); err != nil {
		t.Fatalf("put: %v", err)
	}

	var got string
	if hit, _ := store.Get(ctx, "k", &got); !hit {
		t.Fatal("expected hit inside TTL window")
	}

	// One minute past the fee TTL: expired must read as absent.
	current = current.Add(FeeTTL + time.Minute)
	if hit, _ := store.Get(ctx, "k", &got); hit {
		t.Error("expected expired entry to be treated as a miss")
	}
}

func TestMemory_PutReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	if err := store.Put(ctx, "k", "old", time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Let the first entry expire, then refresh the same key.
	current = current.Add(2 * time.Minute)
	if err := store.Put(ctx, "k", "new", time.Minute); err != nil {
		t.Fatalf("refresh put: %v", err)
	}

	var got string
	hit, err := store.Get(ctx, "k", &got)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !hit {
		t.Fatal("expected refreshed entry to be live")
	}
	if got != "new" {
		t.Errorf("expected refreshed value, got %q", got)
	}
	if store.Len() != 1 {
		t.Errorf("upsert must not append: %d entries", store.Len())
	}
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return current })

	_ = store.Put(ctx, "stale", 1, time.Minute)
	_ = store.Put(ctx, "live", 2, time.Hour)

	current = current.Add(5 * time.Minute)

	if removed := store.Sweep(); removed != 1 {
		t.Errorf("expected 1 swept entry, got %d", removed)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 surviving entry, got %d", store.Len())
	}
}
