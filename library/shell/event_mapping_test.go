package shell_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
)

func Test_StorableEventFrom_WritesTheLedgerEntryLayout(t *testing.T) {
	// arrange
	occurredAt := time.Date(2025, 1, 2, 3, 4, 5, 123456789, time.UTC)
	event := core.BuildBookBorrowed("alice", 7, "Dune", occurredAt)

	// act
	storable, err := shell.StorableEventFrom(event, shell.NewEventMetadata())

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.BookBorrowedEventType, storable.EventType)
	assert.JSONEq(
		t,
		`{"username":"alice","book_id":7,"title":"Dune","action":"borrowed","datetime":"2025-01-02T03:04:05.123456Z"}`,
		string(storable.PayloadJSON),
	)

	metadata, err := shell.EventMetadataFrom(storable)
	require.NoError(t, err)
	assert.NotEmpty(t, metadata.MessageID)
	assert.Equal(t, metadata.MessageID, metadata.CorrelationID)
}

func Test_DomainEventsFrom_RestoresBothEventTypes(t *testing.T) {
	// arrange
	occurredAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	borrowed, err := shell.StorableEventFrom(core.BuildBookBorrowed("alice", 7, "Dune", occurredAt), shell.NewEventMetadata())
	require.NoError(t, err)
	returned, err := shell.StorableEventFrom(core.BuildBookReturned("alice", 7, "Dune", occurredAt.Add(time.Hour)), shell.NewEventMetadata())
	require.NoError(t, err)

	// act
	events, err := shell.DomainEventsFrom(eventstore.StorableEvents{borrowed, returned})

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.BuildBookBorrowed("alice", 7, "Dune", occurredAt), events[0])
	assert.Equal(t, core.BuildBookReturned("alice", 7, "Dune", occurredAt.Add(time.Hour)), events[1])
}

func Test_DomainEventFrom_When_EventTypeIsUnknown(t *testing.T) {
	// arrange
	storable, err := eventstore.BuildStorableEventWithEmptyMetadata("BookBurned", time.Now(), []byte(`{}`))
	require.NoError(t, err)

	// act
	_, err = shell.DomainEventFrom(storable)

	// assert
	assert.ErrorIs(t, err, shell.ErrMappingToDomainEventFailed)
	assert.ErrorIs(t, err, shell.ErrMappingToDomainEventUnknownEventType)
}
