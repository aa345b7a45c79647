package jsonengine

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"math"
	"os"
	"slices"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
	"github.com/AntonStoeckl/library-ledger-go/internal/jsonfile"
)

const (
	defaultFileMode           = fs.FileMode(0o644)
	logMsgReadFailed          = "failed to read ledger file"
	logMsgDecodeFailed        = "failed to decode ledger file"
	logMsgWriteFailed         = "failed to write ledger file"
	logMsgBuildStorableFailed = "failed to build storable event from ledger record"
	logMsgQueryCompleted      = "query completed"
	logMsgEventsAppended      = "events appended"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgFileIO              = "ledger file io for: "
	logMsgOperation           = "eventstore operation: "
	logAttrError              = "error"
	logAttrFile               = "file"
	logAttrEventType          = "event_type"
	logAttrEventCount         = "event_count"
	logAttrRecordCount        = "record_count"
	logAttrDurationMS         = "duration_ms"
	logAttrExpectedSequence   = "expected_sequence"
	logAttrActualSequence     = "actual_sequence"
	logActionRead             = "read"
	logActionWrite            = "write"
)

// record is the persisted form of one event.
type record struct {
	SequenceNumber eventstore.MaxSequenceNumberUint `json:"sequence_number"`
	EventType      string                           `json:"event_type"`
	OccurredAt     time.Time                        `json:"occurred_at"`
	Payload        json.RawMessage                  `json:"payload"`
	Metadata       json.RawMessage                  `json:"metadata"`
}

// EventStore is a file based event store. It is a value type, copies share the file lock.
type EventStore struct {
	lock     *sync.RWMutex
	filePath string
	fileMode fs.FileMode
	logger   eventstore.Logger
}

// NewEventStore creates an EventStore for the ledger file at filePath.
// The file does not need to exist, it is created by the first Append.
func NewEventStore(filePath string, options ...Option) (EventStore, error) {
	if filePath == "" {
		return EventStore{}, eventstore.ErrEmptyLedgerFilePath
	}

	es := EventStore{
		lock:     &sync.RWMutex{},
		filePath: filePath,
		fileMode: defaultFileMode,
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// FilePath returns the path of the ledger file.
func (es EventStore) FilePath() string {
	return es.filePath
}

// Query returns the events matching the filter in append order,
// together with the MaxSequenceNumberUint of this "dynamic event stream".
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	var empty eventstore.StorableEvents

	if err := ctx.Err(); err != nil {
		return empty, 0, errors.Join(eventstore.ErrQueryingEventsFailed, err)
	}

	es.lock.RLock()
	defer es.lock.RUnlock()

	start := time.Now()

	records, readErr := es.readRecords()
	if readErr != nil {
		return empty, 0, errors.Join(eventstore.ErrQueryingEventsFailed, readErr)
	}

	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, rec := range records {
		if !matches(filter, rec) {
			continue
		}

		event, buildErr := eventstore.BuildStorableEvent(rec.EventType, rec.OccurredAt, rec.Payload, rec.Metadata)
		if buildErr != nil {
			if es.logger != nil {
				es.logger.Error(logMsgBuildStorableFailed, logAttrError, buildErr.Error(), logAttrEventType, rec.EventType)
			}

			return empty, 0, errors.Join(eventstore.ErrBuildingStorableEventFailed, buildErr)
		}

		eventStream = append(eventStream, event)
		maxSequenceNumber = rec.SequenceNumber
	}

	es.logOperation(
		logMsgQueryCompleted,
		logAttrEventCount, len(eventStream),
		logAttrDurationMS, durationToMilliseconds(time.Since(start)),
	)

	return eventStream, maxSequenceNumber, nil
}

// Append appends one or multiple events, but only if the "dynamic event stream" selected by filter
// still ends at expectedMaxSequenceNumber. Otherwise, it returns eventstore.ErrConcurrencyConflict
// and the file is left untouched.
//
// The filter should be the same as the one used for the Query before making the business decision.
func (es EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	if err := ctx.Err(); err != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, err)
	}

	allEvents := append(eventstore.StorableEvents{event}, additionalEvents...)

	es.lock.Lock()
	defer es.lock.Unlock()

	start := time.Now()

	records, readErr := es.readRecords()
	if readErr != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, readErr)
	}

	actualMaxSequenceNumber := eventstore.MaxSequenceNumberUint(0)
	lastSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, rec := range records {
		lastSequenceNumber = max(lastSequenceNumber, rec.SequenceNumber)

		if matches(filter, rec) {
			actualMaxSequenceNumber = rec.SequenceNumber
		}
	}

	if actualMaxSequenceNumber != expectedMaxSequenceNumber {
		es.logOperation(
			logMsgConcurrencyConflict,
			logAttrExpectedSequence, expectedMaxSequenceNumber,
			logAttrActualSequence, actualMaxSequenceNumber,
		)

		return eventstore.ErrConcurrencyConflict
	}

	for _, e := range allEvents {
		lastSequenceNumber++
		records = append(records, record{
			SequenceNumber: lastSequenceNumber,
			EventType:      e.EventType,
			OccurredAt:     e.OccurredAt.UTC(),
			Payload:        e.PayloadJSON,
			Metadata:       e.MetadataJSON,
		})
	}

	if writeErr := es.writeRecords(records); writeErr != nil {
		return errors.Join(eventstore.ErrAppendingEventFailed, writeErr)
	}

	es.logOperation(
		logMsgEventsAppended,
		logAttrEventCount, len(allEvents),
		logAttrDurationMS, durationToMilliseconds(time.Since(start)),
	)

	return nil
}

// readRecords loads all records, a missing or empty file is an empty ledger.
func (es EventStore) readRecords() ([]record, error) {
	start := time.Now()

	data, err := os.ReadFile(es.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		if es.logger != nil {
			es.logger.Error(logMsgReadFailed, logAttrError, err.Error(), logAttrFile, es.filePath)
		}

		return nil, errors.Join(eventstore.ErrReadingLedgerFileFailed, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	records := make([]record, 0)
	if err = jsoniter.ConfigFastest.Unmarshal(data, &records); err != nil {
		if es.logger != nil {
			es.logger.Error(logMsgDecodeFailed, logAttrError, err.Error(), logAttrFile, es.filePath)
		}

		return nil, errors.Join(eventstore.ErrReadingLedgerFileFailed, err)
	}

	es.logFileIO(logActionRead, len(records), time.Since(start))

	return records, nil
}

// writeRecords replaces the ledger file atomically.
func (es EventStore) writeRecords(records []record) error {
	start := time.Now()

	if records == nil {
		records = []record{}
	}

	if err := jsonfile.WriteAtomic(es.filePath, records, es.fileMode); err != nil {
		if es.logger != nil {
			es.logger.Error(logMsgWriteFailed, logAttrError, err.Error(), logAttrFile, es.filePath)
		}

		return errors.Join(eventstore.ErrWritingLedgerFileFailed, err)
	}

	es.logFileIO(logActionWrite, len(records), time.Since(start))

	return nil
}

func matches(filter eventstore.Filter, rec record) bool {
	items := filter.Items()
	if len(items) == 0 {
		return true
	}

	for _, item := range items {
		if matchesItem(item, rec) {
			return true
		}
	}

	return false
}

func matchesItem(item eventstore.FilterItem, rec record) bool {
	if len(item.EventTypes()) > 0 && !slices.Contains(item.EventTypes(), rec.EventType) {
		return false
	}

	predicates := item.Predicates()
	if len(predicates) == 0 {
		return true
	}

	for _, predicate := range predicates {
		matched := payloadValue(rec.Payload, predicate.Key()) == predicate.Val()

		if matched && !item.AllPredicatesMustMatch() {
			return true
		}

		if !matched && item.AllPredicatesMustMatch() {
			return false
		}
	}

	return item.AllPredicatesMustMatch()
}

// payloadValue renders a top-level payload field as text, like Postgres' ->> operator does.
func payloadValue(payload []byte, key string) string {
	value := jsoniter.ConfigFastest.Get(payload, key)
	if value.LastError() != nil {
		return ""
	}

	return value.ToString()
}

func (es EventStore) logFileIO(action string, recordCount int, duration time.Duration) {
	if es.logger != nil {
		es.logger.Debug(
			logMsgFileIO+action,
			logAttrFile, es.filePath,
			logAttrRecordCount, recordCount,
			logAttrDurationMS, durationToMilliseconds(duration),
		)
	}
}

func (es EventStore) logOperation(action string, args ...any) {
	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
