// Package repository defines the backing-store contracts and errors for
// attempts, point tables, and the per-challenge score cache.
package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithReadFault installs a hook invoked before attempt reads. A non-nil
// return aborts the read with that error. Used to inject transient faults in
// tests.
func WithReadFault(hook func(challengeID string) error) Option {
	return func(s *MemStore) {
		s.readFault = hook
	}
}

// WithWriteFault installs a hook invoked before score-cache replaces. A
// non-nil return aborts the write with that error.
func WithWriteFault(hook func(challengeID string) error) Option {
	return func(s *MemStore) {
		s.writeFault = hook
	}
}
