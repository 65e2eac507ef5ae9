package webhook

import (
	"sync"
	"time"
)

// Deduplicator is a short-TTL set of inbound event ids, used as the
// idempotency guard: an id present within its TTL window means the
// event was already processed. Safe for concurrent use across webhook
// deliveries.
type Deduplicator struct {
	mu      sync.Mutex
	entries map[string]time.Time // id -> expiry instant
	ttl     time.Duration

	now func() time.Time
}

// NewDeduplicator creates a deduplicator with the given entry TTL.
func NewDeduplicator(ttl time.Duration) *Deduplicator {
	return &Deduplicator{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Seen reports whether the id was marked within its TTL window.
func (d *Deduplicator) Seen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	expiry, ok := d.entries[id]
	if !ok {
		return false
	}
	if d.now().After(expiry) {
		delete(d.entries, id)
		return false
	}
	return true
}

// CheckAndMark reports whether the id was already marked within its TTL
// window, marking it when it was not. Check and mark happen under one
// lock, so concurrent deliveries of the same id cannot both pass.
func (d *Deduplicator) CheckAndMark(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if expiry, ok := d.entries[id]; ok && !now.After(expiry) {
		return true
	}
	d.entries[id] = now.Add(d.ttl)
	return false
}

// Mark records the id as processed for the TTL window, refreshing any
// existing entry.
func (d *Deduplicator) Mark(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[id] = d.now().Add(d.ttl)
}

// Sweep removes expired entries and returns how many were dropped.
// Run periodically so the set does not grow unbounded.
func (d *Deduplicator) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	dropped := 0
	for id, expiry := range d.entries {
		if now.After(expiry) {
			delete(d.entries, id)
			dropped++
		}
	}
	return dropped
}
