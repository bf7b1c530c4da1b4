package knowledge

import (
	"sync"
	"time"
)

// StageCache holds short-lived, per-user processing stages so the document
// status poll can report finer detail than the database row carries. Entries
// are advisory only; the database remains authoritative.
type StageCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[stageKey]stageEntry
}

type stageKey struct {
	userID     int64
	documentID int64
}

type stageEntry struct {
	stage     string
	expiresAt time.Time
}

func NewStageCache(ttl time.Duration) *StageCache {
	return &StageCache{
		ttl:     ttl,
		entries: make(map[stageKey]stageEntry),
	}
}

func (c *StageCache) Set(userID, documentID int64, stage string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[stageKey{userID, documentID}] = stageEntry{
		stage:     stage,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *StageCache) Get(userID, documentID int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[stageKey{userID, documentID}]
	if !ok {
		return "", false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, stageKey{userID, documentID})
		return "", false
	}
	return e.stage, true
}

// Delete drops the entry once processing reaches a terminal state.
func (c *StageCache) Delete(userID, documentID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, stageKey{userID, documentID})
}

// Sweep removes expired entries. Called periodically from a background
// goroutine so abandoned polls do not accumulate.
func (c *StageCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *StageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
