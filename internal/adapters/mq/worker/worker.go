// Package worker defines the workers that drain the ingest queue: each
// dequeued attempt outcome is recorded and its challenge reindexed.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Attempt is what workers read off the queue.
type Attempt = model.Attempt

// Recorder persists an evaluated attempt outcome.
type Recorder interface {
	RecordAttempt(ctx context.Context, a model.Attempt) error
}

// Reindexer recomputes and persists a challenge's leaderboard snapshot.
type Reindexer interface {
	Reindex(ctx context.Context, challengeID string) error
}

// Queue defines how workers receive attempts.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Attempt
}

// Worker processes attempts using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing attempt outcomes.
type InMemoryWorker struct {
	queue     Queue
	recorder  Recorder
	reindexer Reindexer
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, recorder Recorder, reindexer Reindexer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		recorder:  recorder,
		reindexer: reindexer,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
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

	attempts := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case a, ok := <-attempts:
			if !ok {
				return
			}
			if err := w.processAttempt(ctx, a); err != nil {
				w.logger.Error(ctx, "error processing attempt", logger.Error(err))
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

// processAttempt records one attempt outcome and reindexes its challenge.
func (w *InMemoryWorker) processAttempt(ctx context.Context, a Attempt) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.recorder.RecordAttempt(ctx, a); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		w.logger.Error(ctx, "recording failed for attempt",
			logger.String("attemptID", a.ID),
			logger.Error(err),
		)
		return fmt.Errorf("record attempt %s: %w", a.ID, err)
	}

	if err := w.reindexer.Reindex(ctx, a.ChallengeID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "reindex_error")
		w.logger.Error(ctx, "reindex failed for challenge",
			logger.String("attemptID", a.ID),
			logger.String("challengeID", a.ChallengeID),
			logger.Error(err),
		)
		return fmt.Errorf("reindex challenge %s: %w", a.ChallengeID, err)
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	recorder  Recorder
	reindexer Reindexer

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, recorder Recorder, reindexer Reindexer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     q,
		recorder:  recorder,
		reindexer: reindexer,
		shutdown:  make(chan struct{}),
		logger:    logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q,
			recorder,
			reindexer,
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

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.shutdown:
		default:
			close(w.shutdown)
		}
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for the workers to drain.
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
