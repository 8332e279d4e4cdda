// Package repository defines the backing-store contracts and errors for
// attempts, point tables, and the per-challenge score cache.
package repository

import (
	"context"

	"github.com/okian/podium/internal/domain/model"
)

// AttemptStore provides access to evaluated attempt records. Attempts are
// immutable once recorded and are never deleted by this service.
type AttemptStore interface {
	// RecordAttempt persists an attempt outcome, creating the owning
	// challenge if it is unknown.
	RecordAttempt(ctx context.Context, a model.Attempt) error

	// AttemptsByChallenge returns every attempt recorded for a challenge.
	// Returns ErrChallengeNotFound for unknown challenges.
	AttemptsByChallenge(ctx context.Context, challengeID string) ([]model.Attempt, error)
}

// ScoreTableStore provides access to point-value tables by id.
type ScoreTableStore interface {
	// PutPointTable stores or replaces a point table.
	PutPointTable(ctx context.Context, t model.PointTable) error

	// PointTable returns the table with the given id.
	// Returns ErrTableNotFound when absent.
	PointTable(ctx context.Context, id string) (model.PointTable, error)
}

// ScoreCacheStore persists the materialized leaderboard snapshot attached to
// each challenge.
type ScoreCacheStore interface {
	// ReplaceScoreCache swaps the challenge's snapshot wholesale. The write
	// must be acknowledged as durable before this returns; a read that
	// follows a successful replace never observes an older snapshot. No
	// concurrency token is used: overlapping replaces for one challenge
	// resolve last-write-wins.
	// Returns ErrChallengeNotFound for unknown challenges and
	// ErrWriteNotAcked when durability cannot be confirmed.
	ReplaceScoreCache(ctx context.Context, challengeID string, cache model.ScoreCache) error

	// ScoreCache returns the current snapshot for a challenge.
	// Returns ErrChallengeNotFound for unknown challenges.
	ScoreCache(ctx context.Context, challengeID string) (model.ScoreCache, error)

	// ListChallenges returns the ids of every known challenge.
	ListChallenges(ctx context.Context) ([]string, error)
}

// Store aggregates the three store contracts behind one dependency.
type Store interface {
	AttemptStore
	ScoreTableStore
	ScoreCacheStore
}
