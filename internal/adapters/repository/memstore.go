package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// MemStore implements Store in process. Writes are acknowledged once the
// guarded mutation completes, so the durability contract of
// ReplaceScoreCache holds trivially: a subsequent read always observes the
// snapshot just written.
type MemStore struct {
	mu         sync.RWMutex
	attempts   map[string][]model.Attempt  // challenge id -> recorded attempts
	attemptIDs map[string]struct{}         // attempt id -> recorded marker
	tables     map[string]model.PointTable // table id -> point table
	caches     map[string]model.ScoreCache // challenge id -> current snapshot

	// Fault hooks let tests inject transient store failures on the
	// reindex-critical paths.
	readFault  func(challengeID string) error // before attempt reads
	writeFault func(challengeID string) error // before cache replaces
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		attempts:   make(map[string][]model.Attempt),
		attemptIDs: make(map[string]struct{}),
		tables:     make(map[string]model.PointTable),
		caches:     make(map[string]model.ScoreCache),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordAttempt persists an attempt outcome. Re-recording an attempt id is a
// no-op; attempts are immutable.
func (s *MemStore) RecordAttempt(ctx context.Context, a model.Attempt) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.attemptIDs[a.ID]; seen {
		return nil
	}
	s.attemptIDs[a.ID] = struct{}{}
	s.attempts[a.ChallengeID] = append(s.attempts[a.ChallengeID], a)
	if _, ok := s.caches[a.ChallengeID]; !ok {
		s.caches[a.ChallengeID] = model.ScoreCache{ChallengeID: a.ChallengeID, Entries: []model.Entry{}}
	}
	return nil
}

// AttemptsByChallenge returns a copy of the challenge's attempt records.
func (s *MemStore) AttemptsByChallenge(ctx context.Context, challengeID string) ([]model.Attempt, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.readFault != nil {
		if err := s.readFault(challengeID); err != nil {
			return nil, err
		}
	}
	attempts, ok := s.attempts[challengeID]
	if !ok {
		return nil, fmt.Errorf("attempts for %q: %w", challengeID, ErrChallengeNotFound)
	}
	out := make([]model.Attempt, len(attempts))
	copy(out, attempts)
	return out, nil
}

// PutPointTable stores or replaces a point table.
func (s *MemStore) PutPointTable(ctx context.Context, t model.PointTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make([]int64, len(t.Values))
	copy(values, t.Values)
	s.tables[t.ID] = model.PointTable{ID: t.ID, Values: values}
	return nil
}

// PointTable returns the table with the given id.
func (s *MemStore) PointTable(ctx context.Context, id string) (model.PointTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[id]
	if !ok {
		return model.PointTable{}, fmt.Errorf("table %q: %w", id, ErrTableNotFound)
	}
	values := make([]int64, len(t.Values))
	copy(values, t.Values)
	return model.PointTable{ID: t.ID, Values: values}, nil
}

// ReplaceScoreCache swaps the challenge's snapshot wholesale, last write wins.
func (s *MemStore) ReplaceScoreCache(ctx context.Context, challengeID string, cache model.ScoreCache) error {
	start := time.Now()
	defer func() {
		metrics.RecordCacheWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeFault != nil {
		if err := s.writeFault(challengeID); err != nil {
			return err
		}
	}
	if _, ok := s.caches[challengeID]; !ok {
		return fmt.Errorf("cache for %q: %w", challengeID, ErrChallengeNotFound)
	}
	entries := make([]model.Entry, len(cache.Entries))
	copy(entries, cache.Entries)
	s.caches[challengeID] = model.ScoreCache{
		ChallengeID: challengeID,
		Entries:     entries,
		ComputedAt:  cache.ComputedAt,
	}
	metrics.UpdateCacheEntries(challengeID, len(entries))
	return nil
}

// ScoreCache returns the current snapshot for a challenge.
func (s *MemStore) ScoreCache(ctx context.Context, challengeID string) (model.ScoreCache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cache, ok := s.caches[challengeID]
	if !ok {
		return model.ScoreCache{}, fmt.Errorf("cache for %q: %w", challengeID, ErrChallengeNotFound)
	}
	entries := make([]model.Entry, len(cache.Entries))
	copy(entries, cache.Entries)
	return model.ScoreCache{
		ChallengeID: cache.ChallengeID,
		Entries:     entries,
		ComputedAt:  cache.ComputedAt,
	}, nil
}

// ListChallenges returns every known challenge id in lexical order so batch
// walks are deterministic.
func (s *MemStore) ListChallenges(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.caches))
	for id := range s.caches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
