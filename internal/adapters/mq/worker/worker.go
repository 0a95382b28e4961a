// Package worker drains the verdict queue and applies each verdict to
// the catalog as an atomic match update.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/mkarimi/duelrank/internal/adapters/repository"
	"github.com/mkarimi/duelrank/internal/domain/model"
	"github.com/mkarimi/duelrank/pkg/logger"
	"github.com/mkarimi/duelrank/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Verdict is what workers read off the queue.
type Verdict = model.Verdict

// Applier applies a verdict outcome to the rated pair.
type Applier interface {
	RecordMatch(ctx context.Context, idA, idB string, result float64) (model.MatchEntry, error)
}

// Queue defines how workers receive verdicts.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Verdict
}

// Worker processes verdicts until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for applying verdicts.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		applier:  applier,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	verdicts := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case v, ok := <-verdicts:
			if !ok {
				// queue closed and drained
				return
			}
			if err := w.apply(ctx, v); err != nil {
				w.logger.Error(ctx, "error applying verdict", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// apply handles a single verdict. A verdict referencing an item that
// was removed after pairing is dropped; the queue already consumed it.
func (w *InMemoryWorker) apply(ctx context.Context, v Verdict) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	entry, err := w.applier.RecordMatch(ctx, v.ItemA, v.ItemB, v.Result)
	if err != nil {
		metrics.RecordWorkerError()
		if errors.Is(err, repository.ErrNotFound) {
			w.logger.Warn(ctx, "dropping verdict for missing item",
				logger.String("verdictID", v.VerdictID),
				logger.String("itemA", v.ItemA),
				logger.String("itemB", v.ItemB),
			)
			return nil
		}
		w.logger.Error(ctx, "match update failed",
			logger.String("verdictID", v.VerdictID),
			logger.Error(err),
		)
		return fmt.Errorf("apply verdict %s: %w", v.VerdictID, err)
	}

	w.logger.Debug(ctx, "verdict applied",
		logger.String("verdictID", v.VerdictID),
		logger.Bool("draw", entry.Draw),
	)
	return nil
}

// Pool manages multiple workers draining the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	applier Applier

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive count defaults to
// a small multiple of the CPU count.
func NewPool(workerCount int, queue Queue, applier Applier) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		applier: applier,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			applier,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop stops all workers without waiting for the queue to drain.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		select {
		case <-w.shutdown:
		default:
			close(w.shutdown)
		}
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue so buffered verdicts drain, then waits for
// every worker to finish or the timeout to pass.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
