package eventstore

import (
	"errors"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict, the event stream was changed since it was queried")

	ErrEmptyEventsTableName  = errors.New("events table name must not be empty")
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrEmptyLedgerFilePath   = errors.New("ledger file path must not be empty")

	ErrBuildingQueryFailed         = errors.New("building the query failed")
	ErrQueryingEventsFailed        = errors.New("querying events failed")
	ErrScanningDBRowFailed         = errors.New("scanning a database row failed")
	ErrBuildingStorableEventFailed = errors.New("building a storable event failed")
	ErrAppendingEventFailed        = errors.New("appending the event failed")
	ErrGettingRowsAffectedFailed   = errors.New("getting the rows affected failed")
	ErrInitializingSchemaFailed    = errors.New("initializing the events schema failed")
	ErrReadingLedgerFileFailed     = errors.New("reading the ledger file failed")
	ErrWritingLedgerFileFailed     = errors.New("writing the ledger file failed")
)

// MaxSequenceNumberUint is the highest sequence number within a "dynamic event stream", i.e. within all events
// matching a Filter. It is 0 when no event matches.
type MaxSequenceNumberUint = uint
