// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"time"

	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the backing store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of ingest worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the attempt queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxRetries bounds how many times a failed reindex is retried.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithBackoffRange sets the exponential backoff bounds between retries.
// Equal bounds pin the delay to a fixed value. Same acceptance rule as the
// config loader: 0 < min <= max.
func WithBackoffRange(min, max time.Duration) Option {
	return func(s *Service) {
		if min > 0 && max >= min {
			s.backoffMin = min
			s.backoffMax = max
		}
	}
}

// WithActiveTable sets the point table id used for batch reindexing and
// ingest-triggered reindexes.
func WithActiveTable(id string) Option {
	return func(s *Service) {
		s.activeTableID = id
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
