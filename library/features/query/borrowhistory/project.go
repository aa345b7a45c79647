package borrowhistory

import (
	"slices"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

// ProjectBorrowHistory is a pure function that lists the ledger entries selected by query.
// Entries with equal timestamps keep their append order.
func ProjectBorrowHistory(history core.DomainEvents, query Query) BorrowHistory {
	entries := make([]core.BorrowEvent, 0, len(history))

	for _, event := range history {
		entry, ok := core.BorrowEventFrom(event)
		if !ok {
			continue
		}

		if !query.AllUsers() && entry.Username != query.Username {
			continue
		}

		entries = append(entries, entry)
	}

	slices.SortStableFunc(entries, func(a, b core.BorrowEvent) int {
		return a.Datetime.Compare(b.Datetime)
	})

	return BorrowHistory{
		Username: query.Username,
		Entries:  entries,
		Count:    len(entries),
	}
}

// BuildEventFilter creates the filter for the ledger entries of username, or all entries if it is empty.
func BuildEventFilter(username core.UsernameString) eventstore.Filter {
	if username == "" {
		return eventstore.BuildEventFilter().
			Matching().
			AnyEventTypeOf(
				core.BookBorrowedEventType,
				core.BookReturnedEventType,
			).
			Finalize()
	}

	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookBorrowedEventType,
			core.BookReturnedEventType,
		).
		AndAnyPredicateOf(
			eventstore.P(core.PayloadKeyUsername, username),
		).
		Finalize()
}
