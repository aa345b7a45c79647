package jsonengine

import (
	"os"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
)

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithLogger sets the logger for the EventStore.
// Debug level receives file reads/writes with timing, Info level event counts and concurrency conflicts,
// Error level the failures that make an operation fail.
func WithLogger(logger eventstore.Logger) Option {
	return func(es *EventStore) error {
		es.logger = logger
		return nil
	}
}

// WithFileMode sets the permissions used when the ledger file is created, the default is 0o644.
func WithFileMode(mode os.FileMode) Option {
	return func(es *EventStore) error {
		es.fileMode = mode
		return nil
	}
}
