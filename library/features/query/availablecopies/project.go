package availablecopies

import (
	"slices"
	"strconv"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

// ProjectAvailability is a pure function that counts the users whose latest entry for the book is a borrow.
// Without strict availability more users than copies can hold a book, Available is then 0.
func ProjectAvailability(history core.DomainEvents, query Query) Availability {
	holding := make(map[core.UsernameString]bool)

	for _, event := range history {
		switch e := event.(type) {
		case core.BookBorrowed:
			if e.BookID == query.BookID {
				holding[e.Username] = true
			}

		case core.BookReturned:
			if e.BookID == query.BookID {
				delete(holding, e.Username)
			}
		}
	}

	holders := make([]core.UsernameString, 0, len(holding))
	for username := range holding {
		holders = append(holders, username)
	}

	slices.Sort(holders)

	return Availability{
		BookID:    query.BookID,
		Copies:    query.Copies,
		Borrowed:  len(holders),
		Available: max(query.Copies-len(holders), 0),
		Holders:   holders,
	}
}

// BuildEventFilter creates the filter for the event stream of the specified book.
func BuildEventFilter(bookID core.BookID) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookBorrowedEventType,
			core.BookReturnedEventType,
		).
		AndAnyPredicateOf(
			eventstore.P(core.PayloadKeyBookID, strconv.Itoa(bookID)),
		).
		Finalize()
}
