// Package coalesce tracks performances with a pending recalculation so the
// ingestion path enqueues at most one job per performance at a time. A
// recalculation reads every live score, so collapsing bursts of submissions
// into one queued job changes nothing about the result.
package coalesce

import (
	"context"
	"sync"
	"sync/atomic"
)

// Coalescer records performances awaiting recalculation.
type Coalescer interface {
	// MarkPending atomically checks whether id already has a pending
	// recalculation and records it if not. Returns true if one was already
	// pending, false if it was newly recorded.
	MarkPending(ctx context.Context, id int64) bool

	// Clear removes id from the pending set. Workers call this as they pick a
	// job up, so submissions arriving mid-calculation enqueue a fresh job.
	Clear(ctx context.Context, id int64)

	Size() int64
}

// inMemoryCoalescer implements Coalescer with a bounded pending set.
// When the bound is exceeded the oldest entry is evicted; an evicted entry only
// means one redundant job may be enqueued, never a missed recalculation.
type inMemoryCoalescer struct {
	mu      sync.Mutex
	pending map[int64]struct{}
	order   []int64
	maxSize int
	size    atomic.Int64
}

// NewInMemoryCoalescer creates a coalescer with configuration options.
func NewInMemoryCoalescer(opts ...Option) Coalescer {
	c := &inMemoryCoalescer{
		maxSize: 50000, // default bound
	}

	for _, opt := range opts {
		opt(c)
	}

	c.pending = make(map[int64]struct{})
	return c
}

// MarkPending atomically checks and records a pending recalculation.
func (c *inMemoryCoalescer) MarkPending(ctx context.Context, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pending[id]; exists {
		return true
	}

	if c.maxSize > 0 && len(c.pending) >= c.maxSize {
		c.evictOldest()
	}

	c.pending[id] = struct{}{}
	c.order = append(c.order, id)
	c.size.Add(1)
	return false
}

// Clear removes id from the pending set.
func (c *inMemoryCoalescer) Clear(ctx context.Context, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pending[id]; !exists {
		return
	}
	delete(c.pending, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.size.Add(-1)
}

// evictOldest drops the earliest recorded entry. Must hold c.mu.
func (c *inMemoryCoalescer) evictOldest() {
	for len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if _, exists := c.pending[oldest]; exists {
			delete(c.pending, oldest)
			c.size.Add(-1)
			return
		}
	}
}

// Size returns the current number of pending entries.
func (c *inMemoryCoalescer) Size() int64 {
	return c.size.Load()
}
