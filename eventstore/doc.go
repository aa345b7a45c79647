// Package eventstore provides the engine-agnostic types of the ledger's event store.
//
// Engines (jsonengine, postgresengine) append StorableEvent(s) and query them back by Filter.
// A Filter describes a "dynamic event stream": every event matching it, in append order.
// Appends are guarded by optimistic concurrency: the caller passes the MaxSequenceNumberUint it
// got from the Query that informed its decision, and the engine refuses the append with
// ErrConcurrencyConflict when another event matching the same Filter was appended meanwhile.
//
// Typical usage:
//
//	filter := eventstore.BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(core.BookBorrowedEventType, core.BookReturnedEventType).
//		AndAnyPredicateOf(eventstore.P("book_id", "42")).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	// decide ...
//	err = store.Append(ctx, filter, maxSeq, newEvent)
package eventstore
