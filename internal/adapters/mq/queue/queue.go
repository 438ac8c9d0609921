// Package queue carries stored runs to the audit workers.
package queue

import (
	"context"
	"sync"

	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a run to the queue. It never blocks; ErrFull is returned
	// when the queue is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, run model.ScoredRun) error

	// Dequeue returns the channel workers read from. It is closed by Close.
	Dequeue() <-chan model.ScoredRun

	Len() int
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	runs     chan model.ScoredRun
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.runs = make(chan model.ScoredRun, q.capacity)
	metrics.UpdateAuditQueueSize(0)
	return q
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, run model.ScoredRun) error { //nolint:gocritic // runs are passed by value through the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.runs <- run:
		metrics.UpdateAuditQueueSize(len(q.runs))
		return nil
	case <-ctx.Done():
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue() <-chan model.ScoredRun {
	return q.runs
}

// Len implements Queue.
func (q *InMemoryQueue) Len() int {
	size := len(q.runs)
	metrics.UpdateAuditQueueSize(size)
	return size
}

// Close implements Queue. Runs already queued are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.runs)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
