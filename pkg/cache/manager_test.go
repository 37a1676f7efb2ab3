package cache

import (
	"context"
	"testing"
	"time"
)

func newManagedCaches(t *testing.T) (*Manager, *Cache[string], *Cache[string]) {
	t.Helper()

	m := NewManager()
	genes := New[string]("genes", 10, time.Minute)
	tissues := New[string]("tissues", 5, time.Minute)

	if err := m.Register(genes); err != nil {
		t.Fatalf("Register(genes) error = %v", err)
	}
	if err := m.Register(tissues); err != nil {
		t.Fatalf("Register(tissues) error = %v", err)
	}
	return m, genes, tissues
}

func TestManager_RegisterDuplicate(t *testing.T) {
	m := NewManager()
	if err := m.Register(New[string]("genes", 10, time.Minute)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := m.Register(New[int]("genes", 10, time.Minute)); err == nil {
		t.Error("Register() with duplicate name should fail")
	}
}

func TestManager_Stats(t *testing.T) {
	m, genes, tissues := newManagedCaches(t)
	ctx := context.Background()

	fill := func(c *Cache[string], key string, times int) {
		for i := 0; i < times; i++ {
			c.GetOrCompute(ctx, key, time.Minute, func(context.Context) (string, error) {
				return "v", nil
			})
		}
	}

	fill(genes, "a", 3)   // 1 miss, 2 hits
	fill(tissues, "b", 2) // 1 miss, 1 hit

	stats := m.Stats()

	if got := stats.Caches["genes"]; got.Hits != 2 || got.Misses != 1 {
		t.Errorf("genes stats = %+v, want 2 hits / 1 miss", got)
	}
	if got := stats.Caches["tissues"]; got.Hits != 1 || got.Misses != 1 {
		t.Errorf("tissues stats = %+v, want 1 hit / 1 miss", got)
	}

	if stats.Global.Hits != 3 || stats.Global.Misses != 2 {
		t.Errorf("global stats = %+v, want 3 hits / 2 misses", stats.Global)
	}
	if stats.Global.HitRate != 0.6 {
		t.Errorf("global HitRate = %v, want 0.6", stats.Global.HitRate)
	}
	if stats.Global.CurrentSize != 2 || stats.Global.MaxSize != 15 {
		t.Errorf("global sizes = %d/%d, want 2/15", stats.Global.CurrentSize, stats.Global.MaxSize)
	}
}

func TestManager_ClearAll(t *testing.T) {
	m, genes, tissues := newManagedCaches(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		genes.GetOrCompute(ctx, key, time.Minute, func(context.Context) (string, error) {
			return key, nil
		})
	}
	tissues.GetOrCompute(ctx, "x", time.Minute, func(context.Context) (string, error) {
		return "x", nil
	})

	result := m.ClearAll()
	if result.ClearedEntries != 4 {
		t.Errorf("ClearedEntries = %d, want 4", result.ClearedEntries)
	}
	if result.ClearedCaches != 2 {
		t.Errorf("ClearedCaches = %d, want 2", result.ClearedCaches)
	}
	if genes.Len() != 0 || tissues.Len() != 0 {
		t.Errorf("cache sizes after ClearAll = %d/%d, want 0/0", genes.Len(), tissues.Len())
	}
}

func TestManager_Empty(t *testing.T) {
	m := NewManager()

	stats := m.Stats()
	if len(stats.Caches) != 0 {
		t.Errorf("Caches = %v, want empty", stats.Caches)
	}
	if stats.Global.HitRate != 0 {
		t.Errorf("HitRate = %v, want 0", stats.Global.HitRate)
	}

	result := m.ClearAll()
	if result.ClearedCaches != 0 || result.ClearedEntries != 0 {
		t.Errorf("ClearAll() = %+v, want zeroes", result)
	}
}
