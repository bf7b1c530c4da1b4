package knowledge

import (
	"testing"
	"time"
)

func TestStageCacheSetGet(t *testing.T) {
	c := NewStageCache(time.Minute)

	if _, ok := c.Get(1, 10); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(1, 10, "generating_tree")
	stage, ok := c.Get(1, 10)
	if !ok || stage != "generating_tree" {
		t.Fatalf("got (%q, %v), want (generating_tree, true)", stage, ok)
	}

	// Same document, different user is a separate entry.
	if _, ok := c.Get(2, 10); ok {
		t.Error("expected miss for another user")
	}

	c.Set(1, 10, "generating_quiz")
	stage, _ = c.Get(1, 10)
	if stage != "generating_quiz" {
		t.Errorf("expected overwrite, got %q", stage)
	}
}

func TestStageCacheExpiry(t *testing.T) {
	c := NewStageCache(-time.Second) // everything is born expired

	c.Set(1, 10, "generating_tree")
	if _, ok := c.Get(1, 10); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("expected lazy eviction on Get, have %d entries", c.Len())
	}
}

func TestStageCacheDelete(t *testing.T) {
	c := NewStageCache(time.Minute)
	c.Set(1, 10, "generating_tree")
	c.Delete(1, 10)
	if _, ok := c.Get(1, 10); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestStageCacheSweep(t *testing.T) {
	c := NewStageCache(time.Minute)
	c.Set(1, 10, "generating_tree")
	c.Set(2, 20, "generating_quiz")

	if removed := c.Sweep(time.Now()); removed != 0 {
		t.Fatalf("expected nothing swept, got %d", removed)
	}
	if removed := c.Sweep(time.Now().Add(2 * time.Minute)); removed != 2 {
		t.Fatalf("expected 2 swept, got %d", removed)
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache after sweep, have %d", c.Len())
	}
}
