package service

import "errors"

// Sentinel kinds for orchestrator errors.
var (
	// ErrNoActiveTable means no active point table id is configured.
	// Batch reindexing refuses to guess which table to score against.
	ErrNoActiveTable = errors.New("active score table not configured")
)
