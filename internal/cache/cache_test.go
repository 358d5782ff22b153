package cache

import (
	"testing"
	"time"

	"clausecompass/internal/store"
)

func TestCache_SetThenGetHits(t *testing.T) {
	c := New(time.Minute, time.Hour)
	defer c.Close()

	clauses := []*store.Clause{{ID: "c1"}}
	c.Set(Key("doc-1"), clauses)

	got, ok := c.Get(Key("doc-1"))
	if !ok || len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("expected cached clauses to be returned, got %+v ok=%v", got, ok)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 0 {
		t.Fatalf("expected 1 hit 0 misses, got %+v", stats)
	}
}

func TestCache_MissIncrementsMissCounter(t *testing.T) {
	c := New(time.Minute, time.Hour)
	defer c.Close()

	if _, ok := c.Get(Key("unknown")); ok {
		t.Fatalf("expected miss for unknown key")
	}
	if stats := c.Stats(); stats.Misses != 1 {
		t.Fatalf("expected 1 miss, got %+v", stats)
	}
}

func TestCache_ExpiredEntryEvictedOnRead(t *testing.T) {
	c := New(time.Millisecond, time.Hour)
	defer c.Close()

	c.Set(Key("doc-1"), []*store.Clause{{ID: "c1"}})
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(Key("doc-1")); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if stats := c.Stats(); stats.Size != 0 {
		t.Fatalf("expected expired entry evicted, size=%d", stats.Size)
	}
}

func TestCache_ClearRemovesEverything(t *testing.T) {
	c := New(time.Minute, time.Hour)
	defer c.Close()

	c.Set(Key("doc-1"), []*store.Clause{{ID: "c1"}})
	c.Clear()

	if stats := c.Stats(); stats.Size != 0 {
		t.Fatalf("expected size 0 after clear, got %d", stats.Size)
	}
}

func TestCache_HitRateComputed(t *testing.T) {
	c := New(time.Minute, time.Hour)
	defer c.Close()

	c.Set(Key("doc-1"), []*store.Clause{{ID: "c1"}})
	c.Get(Key("doc-1"))
	c.Get(Key("missing"))

	stats := c.Stats()
	if stats.HitRate != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %v", stats.HitRate)
	}
}
