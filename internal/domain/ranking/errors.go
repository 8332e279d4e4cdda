package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	// ErrEmptyPointTable signals a missing or empty point table. This is a
	// configuration fault; retrying the computation cannot fix it.
	ErrEmptyPointTable = errors.New("point table missing or empty")
)
