package postgresengine

import "github.com/AntonStoeckl/library-ledger-go/eventstore/postgresengine/internal/adapters"

func NewEventStoreWithDBAdapter(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	return newEventStore(db, options...)
}
