package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

var (
	// ErrMappingToDomainEventFailed is returned when domain event conversion fails.
	ErrMappingToDomainEventFailed = errors.New("mapping to domain event failed")

	// ErrMappingToDomainEventUnknownEventType is returned for unrecognized event types.
	ErrMappingToDomainEventUnknownEventType = errors.New("unknown event type")
)

// DomainEventsFrom converts multiple StorableEvents to DomainEvents.
func DomainEventsFrom(storableEvents eventstore.StorableEvents) (core.DomainEvents, error) {
	domainEvents := make(core.DomainEvents, 0, len(storableEvents))

	for _, storableEvent := range storableEvents {
		domainEvent, err := DomainEventFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		domainEvents = append(domainEvents, domainEvent)
	}

	return domainEvents, nil
}

// DomainEventFrom converts a StorableEvent to its corresponding DomainEvent.
func DomainEventFrom(storableEvent eventstore.StorableEvent) (core.DomainEvent, error) {
	switch storableEvent.EventType {
	case core.BookBorrowedEventType:
		return unmarshalBookBorrowed(storableEvent.PayloadJSON)

	case core.BookReturnedEventType:
		return unmarshalBookReturned(storableEvent.PayloadJSON)
	}

	return nil, errors.Join(ErrMappingToDomainEventFailed, ErrMappingToDomainEventUnknownEventType)
}

func unmarshalBookBorrowed(payloadJSON []byte) (core.DomainEvent, error) {
	payload := core.BookBorrowed{}

	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &payload); err != nil {
		return core.BookBorrowed{}, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return core.BuildBookBorrowed(payload.Username, payload.BookID, payload.Title, payload.OccurredAt), nil
}

func unmarshalBookReturned(payloadJSON []byte) (core.DomainEvent, error) {
	payload := core.BookReturned{}

	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &payload); err != nil {
		return core.BookReturned{}, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return core.BuildBookReturned(payload.Username, payload.BookID, payload.Title, payload.OccurredAt), nil
}
