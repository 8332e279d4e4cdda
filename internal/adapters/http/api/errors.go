package api

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by handlers.
var (
	// ErrBadRequest indicates a malformed or invalid request payload.
	ErrBadRequest = errors.New("bad request")
	// ErrBackpressure indicates the ingest queue refused an attempt.
	ErrBackpressure = errors.New("queue backpressure")
	// ErrUnauthorized indicates a missing or invalid admin credential.
	ErrUnauthorized = errors.New("unauthorized")
)

// NewKind produces an operation-scoped error of the given kind.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind attaches both a kind and a cause to an operation-scoped error.
func WrapKind(op string, kind, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, cause)
}

// Wrap annotates err with the failing operation.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
