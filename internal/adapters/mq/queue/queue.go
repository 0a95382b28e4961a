// Package queue buffers submitted verdicts between the HTTP boundary
// and the workers that apply them to the catalog.
package queue

import (
	"context"
	"sync"

	"github.com/mkarimi/duelrank/internal/domain/model"
	"github.com/mkarimi/duelrank/pkg/metrics"
)

// Default queue configuration constants.
const defaultQueueCapacity = 10000

// Verdict is the payload type flowing through the queue.
type Verdict = model.Verdict

// Queue provides non-blocking enqueue and channel-based dequeue
// semantics for verdicts.
type Queue interface {
	// Enqueue adds a verdict to the queue. Returns false if the queue
	// is full or closed and the verdict was not enqueued.
	Enqueue(ctx context.Context, v Verdict) bool

	// Dequeue returns a channel that receives verdicts as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Verdict

	// Len returns the current number of queued verdicts.
	Len(ctx context.Context) int

	// Close stops the queue. After closing, enqueues fail and the
	// dequeue channel drains and closes.
	Close() error

	// IsClosed reports whether the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	verdicts chan Verdict
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.verdicts = make(chan Verdict, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds a verdict to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, v Verdict) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return false
	}

	select {
	case q.verdicts <- v:
		metrics.RecordQueueEnqueue()
		q.updateGauges()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		return false
	default:
		// queue is full
		metrics.RecordQueueEnqueueError()
		return false
	}
}

// Dequeue returns a channel that receives verdicts as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Verdict {
	out := make(chan Verdict)
	go func() {
		defer close(out)
		for v := range q.verdicts {
			select {
			case out <- v:
				metrics.RecordQueueDequeue()
				q.updateGauges()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued verdicts.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.updateGauges()
	return len(q.verdicts)
}

// Close stops the queue. Idempotent.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.verdicts)
	q.closed = true
	return nil
}

// IsClosed reports whether the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) updateGauges() {
	size := len(q.verdicts)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
