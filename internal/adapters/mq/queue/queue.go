// Package queue defines the contract for enqueuing and consuming evaluated
// attempt outcomes on their way to the reindex pipeline.
//
// The in-memory bounded implementation is sufficient for the inline
// processing model: each accepted outcome is drained by a worker on the same
// process.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultCapacity = 100_000
)

// Attempt is the payload type flowing through the queue.
type Attempt = model.Attempt

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an attempt to the queue.
	// Returns false if the queue is full or closed and the attempt was
	// not enqueued.
	Enqueue(ctx context.Context, a Attempt) bool

	// Dequeue returns a channel that receives attempts as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Attempt

	// Len returns the current number of queued attempts.
	Len(ctx context.Context) int

	// Close shuts the queue down. After closing, no new attempts can be
	// enqueued and the dequeue channel drains then closes.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	attempts chan Attempt
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.attempts = make(chan Attempt, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds an attempt to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a Attempt) bool {
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.attempts <- a:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives attempts as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Attempt {
	out := make(chan Attempt)
	go func() {
		defer close(out)
		for a := range q.attempts {
			select {
			case out <- a:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued attempts.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.observe()
	return len(q.attempts)
}

// Close shuts the queue down.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.attempts)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// observe refreshes the size and utilization gauges.
func (q *InMemoryQueue) observe() {
	size := len(q.attempts)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
