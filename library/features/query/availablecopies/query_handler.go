package availablecopies

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
)

// EventStore defines the interface needed by the QueryHandler for event store operations.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (
		eventstore.StorableEvents,
		eventstore.MaxSequenceNumberUint,
		error,
	)
}

// QueryHandler runs Query -> Unmarshal -> Project.
type QueryHandler struct {
	eventStore EventStore
	logger     shell.Logger
}

// Option configures a QueryHandler.
type Option func(*QueryHandler)

// WithLogging sets the logger for the QueryHandler.
func WithLogging(logger shell.Logger) Option {
	return func(h *QueryHandler) {
		h.logger = logger
	}
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(eventStore EventStore, opts ...Option) QueryHandler {
	h := QueryHandler{
		eventStore: eventStore,
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Handle queries the book's event stream and projects its availability.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Availability, error) {
	start := time.Now()

	storableEvents, _, err := h.eventStore.Query(eventstore.WithEventualConsistency(ctx), BuildEventFilter(query.BookID))
	if err != nil {
		shell.LogQueryFailed(h.logger, queryType, err)
		return Availability{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		shell.LogQueryFailed(h.logger, queryType, err)
		return Availability{}, err
	}

	result := ProjectAvailability(history, query)

	shell.LogQueryHandled(h.logger, queryType, len(history), time.Since(start))

	return result, nil
}
