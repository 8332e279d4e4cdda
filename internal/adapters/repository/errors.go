package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrChallengeNotFound means the challenge id is unknown to the store.
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrTableNotFound means no point table exists for the requested id.
	ErrTableNotFound = errors.New("point table not found")

	// ErrWriteNotAcked means a cache replace could not be confirmed durable.
	// Transient: the write may be retried.
	ErrWriteNotAcked = errors.New("cache write not acknowledged")

	// ErrUnavailable means the store could not serve the request at all.
	// Transient: the operation may be retried.
	ErrUnavailable = errors.New("store unavailable")
)
