// Package service provides the core business service that implements
// the dependencies required by the HTTP API: the reindex orchestrator,
// attempt ingestion, and leaderboard reads.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	attemptqueue "github.com/okian/podium/internal/adapters/mq/queue"
	workerpool "github.com/okian/podium/internal/adapters/mq/worker"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/internal/domain/ranking"
	"github.com/okian/podium/internal/domain/types"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Default orchestrator configuration constants.
const (
	defaultMaxRetries = 3
	defaultBackoffMin = 50 * time.Millisecond
	defaultBackoffMax = 2 * time.Second
	defaultQueueSize  = 100_000
	defaultDedupeSize = 50_000
)

// reindexAdapter lets workers trigger a reindex against the active table
// without seeing the full service surface. The table id is fixed at start.
type reindexAdapter struct {
	svc     *Service
	tableID string
}

func (a *reindexAdapter) Reindex(ctx context.Context, challengeID string) error {
	if a.tableID == "" {
		return ErrNoActiveTable
	}
	_, err := a.svc.ReindexOne(ctx, challengeID, a.tableID)
	return err
}

// Service orchestrates reindexing and implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	queue      attemptqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	maxRetries    int
	backoffMin    time.Duration
	backoffMax    time.Duration
	activeTableID string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		maxRetries:  defaultMaxRetries,
		backoffMin:  defaultBackoffMin,
		backoffMax:  defaultBackoffMax,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.store == nil {
		s.store = repository.NewMemStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = attemptqueue.NewInMemoryQueue(
		attemptqueue.WithCapacity(s.queueSize),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.store, &reindexAdapter{svc: s, tableID: s.activeTableID})
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxRetries", s.maxRetries),
		logger.String("activeTable", s.activeTableID),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping ranking service...")

	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if q, ok := s.queue.(*attemptqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// Store exposes the backing store for bootstrap seeding.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// ActiveTableID returns the configured active point table id.
func (s *Service) ActiveTableID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTableID
}

// SeenAndRecord atomically checks if an attempt id was seen and records it if
// not. Returns true if the attempt was already seen, false if newly recorded.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordAttemptDuplicate()
	}
	return seen
}

// Unrecord removes an attempt id from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits an evaluated attempt outcome for asynchronous processing.
// Returns false on backpressure.
func (s *Service) Enqueue(ctx context.Context, a model.Attempt) bool {
	s.logger.Debug(ctx, "received attempt outcome",
		logger.String("attemptID", a.ID),
		logger.String("challengeID", a.ChallengeID),
		logger.String("profileID", a.ProfileID),
	)

	ok := s.queue.Enqueue(ctx, a)
	if ok {
		metrics.RecordAttemptIngested()
		metrics.UpdateQueueSize(s.queue.Len(ctx))
	}
	return ok
}

// ReindexOne recomputes and persists one challenge's leaderboard snapshot.
//
// Transient store failures are retried in a bounded loop with exponential
// backoff and jitter. Configuration and not-found failures are not retried;
// retrying cannot fix them. The terminal outcome is always returned to the
// caller, never swallowed.
func (s *Service) ReindexOne(ctx context.Context, challengeID, tableID string) (types.ReindexOutcome, error) {
	var lastErr error
	for try := 0; try <= s.maxRetries; try++ {
		if try > 0 {
			metrics.RecordReindexRetry()
			select {
			case <-ctx.Done():
				return types.ReindexOutcome{ChallengeID: challengeID, Retries: try - 1},
					fmt.Errorf("reindex %s: %w", challengeID, ctx.Err())
			case <-time.After(s.backoffDelay(try)):
			}
		}

		metrics.RecordReindexAttempt()
		cache, err := s.rebuild(ctx, challengeID, tableID)
		if err == nil {
			metrics.RecordReindexSuccess()
			s.logger.Info(ctx, "reindex complete",
				logger.String("challengeID", challengeID),
				logger.Int("entries", len(cache.Entries)),
				logger.Int("retries", try),
			)
			return types.ReindexOutcome{ChallengeID: challengeID, Entries: len(cache.Entries), Retries: try}, nil
		}

		lastErr = err
		if !retryable(err) {
			metrics.RecordReindexFailure()
			s.logger.Error(ctx, "reindex failed",
				logger.String("challengeID", challengeID),
				logger.Error(err),
			)
			return types.ReindexOutcome{ChallengeID: challengeID, Retries: try}, err
		}
		s.logger.Warn(ctx, "reindex attempt failed",
			logger.String("challengeID", challengeID),
			logger.Int("try", try),
			logger.Error(err),
		)
	}

	metrics.RecordReindexExhausted()
	s.logger.Error(ctx, "reindex retries exhausted",
		logger.String("challengeID", challengeID),
		logger.Error(lastErr),
	)
	return types.ReindexOutcome{ChallengeID: challengeID, Retries: s.maxRetries},
		fmt.Errorf("reindex %s: retries exhausted: %w", challengeID, lastErr)
}

// rebuild performs one reindex pass: read attempts and table, compute the
// ranking, replace the snapshot.
func (s *Service) rebuild(ctx context.Context, challengeID, tableID string) (model.ScoreCache, error) {
	attempts, err := s.store.AttemptsByChallenge(ctx, challengeID)
	if err != nil {
		return model.ScoreCache{}, fmt.Errorf("load attempts: %w", err)
	}
	table, err := s.store.PointTable(ctx, tableID)
	if err != nil {
		return model.ScoreCache{}, fmt.Errorf("load point table: %w", err)
	}

	computeStart := time.Now()
	entries, err := ranking.Compute(attempts, table)
	metrics.RecordRankComputeLatency(float64(time.Since(computeStart).Milliseconds()))
	if err != nil {
		return model.ScoreCache{}, fmt.Errorf("compute ranking: %w", err)
	}

	cache := model.ScoreCache{
		ChallengeID: challengeID,
		Entries:     entries,
		ComputedAt:  time.Now().UTC(),
	}
	if err := s.store.ReplaceScoreCache(ctx, challengeID, cache); err != nil {
		return model.ScoreCache{}, fmt.Errorf("replace score cache: %w", err)
	}
	return cache, nil
}

// ReindexAll recomputes every challenge against the active point table,
// strictly sequentially. One challenge's terminal failure does not abort the
// remaining iterations; failed challenge ids are reported in the summary.
func (s *Service) ReindexAll(ctx context.Context) (types.ReindexSummary, error) {
	tableID := s.ActiveTableID()
	if tableID == "" {
		return types.ReindexSummary{}, ErrNoActiveTable
	}

	challenges, err := s.store.ListChallenges(ctx)
	if err != nil {
		return types.ReindexSummary{}, fmt.Errorf("list challenges: %w", err)
	}

	summary := types.ReindexSummary{Challenges: len(challenges)}
	for _, id := range challenges {
		if _, err := s.ReindexOne(ctx, id, tableID); err != nil {
			summary.Failed = append(summary.Failed, id)
			continue
		}
		summary.Succeeded++
	}
	metrics.UpdateTotalChallenges(len(challenges))
	return summary, nil
}

// Leaderboard returns up to limit entries of a challenge's current snapshot.
func (s *Service) Leaderboard(ctx context.Context, challengeID string, limit int) ([]types.Entry, error) {
	cache, err := s.store.ScoreCache(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	n := len(cache.Entries)
	if limit > 0 && limit < n {
		n = limit
	}
	entries := make([]types.Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = types.Entry{
			Rank:      i + 1,
			ProfileID: cache.Entries[i].ProfileID,
			AttemptID: cache.Entries[i].AttemptID,
			Score:     cache.Entries[i].Score,
		}
	}
	return entries, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"maxRetries":  s.maxRetries,
		"activeTable": s.activeTableID,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)

		if challenges, err := s.store.ListChallenges(ctx); err == nil {
			stats["totalChallenges"] = len(challenges)
			metrics.UpdateTotalChallenges(len(challenges))
		}
	}

	return stats
}

// backoffDelay returns the jittered exponential delay before retry number try.
func (s *Service) backoffDelay(try int) time.Duration {
	d := s.backoffMin << uint(try-1)
	if d <= 0 || d > s.backoffMax {
		d = s.backoffMax
	}
	// Full jitter over the upper half keeps retries spread without
	// collapsing the floor.
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1)) //nolint:gosec // jitter does not need crypto randomness
}

// retryable classifies terminal versus transient reindex failures.
// Configuration faults and missing references fail fast; everything else is
// assumed transient store trouble worth retrying.
func retryable(err error) bool {
	switch {
	case errors.Is(err, ranking.ErrEmptyPointTable),
		errors.Is(err, repository.ErrChallengeNotFound),
		errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, ErrNoActiveTable):
		return false
	default:
		return true
	}
}
