// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults; Load layers file and
//   env sources on top.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AdminToken guards the reindex triggers. Empty disables admin routes.
	AdminToken string `koanf:"admin_token"`

	// ActiveScoreTableID names the point table reindexing uses when a
	// trigger does not override it.
	ActiveScoreTableID string `koanf:"active_score_table_id"`

	// ScoreTableValues seeds the active point table at startup. Position i
	// holds the points awarded to rank i+1.
	ScoreTableValues []int64 `koanf:"score_table_values"`

	// QueueSize bounds the in-memory attempt queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ReindexMaxRetries bounds retries after a transient reindex failure.
	// The first attempt is not counted.
	ReindexMaxRetries int `koanf:"reindex_max_retries"`

	// ReindexBackoffMinMS and ReindexBackoffMaxMS bound the jittered
	// exponential backoff between reindex retries.
	ReindexBackoffMinMS int `koanf:"reindex_backoff_min_ms"`
	ReindexBackoffMaxMS int `koanf:"reindex_backoff_max_ms"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		ScoreTableValues:    []int64{25, 18, 15, 12, 10, 8, 6, 4, 2, 1},
		QueueSize:           100_000,
		WorkerCount:         runtime.NumCPU() * 4,
		DedupeSize:          50_000,
		ReindexMaxRetries:   3,
		ReindexBackoffMinMS: 50,
		ReindexBackoffMaxMS: 2_000,
		MaxLeaderboardLimit: 100,
	}
}
