// Package dedupe defines the interface for idempotency tracking.
//
// Attempt ids arriving over the ingest surface are tracked so a redelivered
// outcome is acknowledged without being processed twice.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default deduper configuration constants.
const (
	defaultMaxSize = 50_000
)

// Deduper records seen attempt ids to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id from the seen set, allowing it to be retried.
	// Used when an id was marked seen but the follow-up enqueue failed.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of ids currently tracked.
	Size() int64
}

// inMemoryDeduper implements Deduper with a map plus a FIFO eviction ring.
// When maxSize is exceeded the oldest recorded id is forgotten; a forgotten
// id can therefore be processed again, which is safe because attempt
// recording is itself idempotent downstream.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // ring buffer of ids in record order
	head    int      // index of the oldest id when the ring is full
	maxSize int      // 0 or negative means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, 0, d.maxSize)
	}
	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		if len(d.order) < d.maxSize {
			d.order = append(d.order, id)
		} else {
			// Ring is full: evict the oldest id and take its slot.
			evicted := d.order[d.head]
			if evicted != "" {
				delete(d.seen, evicted)
				d.size.Add(-1)
			}
			d.order[d.head] = id
			d.head = (d.head + 1) % d.maxSize
		}
	}

	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord removes an id from the seen set.
// The ring slot is left in place; eviction skips ids no longer present.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)
	for i := range d.order {
		if d.order[i] == id {
			d.order[i] = ""
			break
		}
	}
}

// Size returns the number of ids currently tracked.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
