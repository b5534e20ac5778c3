// Package queue buffers host events between the code that receives them and
// the dispatcher that applies them.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/tbg-racing/rankingsaver/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an event to the queue without blocking.
	Enqueue(ctx context.Context, e HostEvent) error

	// Events returns the channel events are delivered on. It is closed once
	// the queue is closed and drained.
	Events() <-chan HostEvent

	// Len returns the current number of queued events.
	Len() int

	// Close stops accepting events. Queued events stay deliverable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events chan HostEvent

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	cfg := options{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}

	metrics.UpdateQueueSize(0)
	return &InMemoryQueue{events: make(chan HostEvent, cfg.capacity)}
}

// Enqueue adds an event to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e HostEvent) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordEnqueueError("closed")
		return ErrQueueClosed
	}

	select {
	case <-ctx.Done():
		metrics.RecordEnqueueError("context_cancelled")
		return fmt.Errorf("enqueue %s: %w", e.Type, ctx.Err())
	default:
	}

	select {
	case q.events <- e:
		metrics.UpdateQueueSize(len(q.events))
		return nil
	default:
		metrics.RecordEnqueueError("queue_full")
		return fmt.Errorf("enqueue %s: %w", e.Type, ErrQueueFull)
	}
}

// Events returns the delivery channel.
func (q *InMemoryQueue) Events() <-chan HostEvent {
	return q.events
}

// Len returns the current number of queued events.
func (q *InMemoryQueue) Len() int {
	size := len(q.events)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting events.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.events)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
