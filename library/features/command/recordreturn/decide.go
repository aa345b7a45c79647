package recordreturn

import (
	"fmt"
	"strconv"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

type state struct {
	lastKnownTitle string
}

// Decide determines the BookReturned event to append. It is a pure function.
//
// Business Rules:
//
//	GIVEN: A book with BookID
//	WHEN: RecordReturn command is received
//	THEN: BookReturned event is generated, whether or not the user holds the book
//	ERROR: ErrNotFound if the command has no title and the ledger never saw the book
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	title := command.Title

	if title == "" {
		title = project(history, command.BookID).lastKnownTitle
	}

	if title == "" {
		return core.ErrorDecision(fmt.Errorf("%w: book %d", core.ErrNotFound, command.BookID))
	}

	return core.SuccessDecision(
		core.BuildBookReturned(command.Username, command.BookID, title, command.OccurredAt),
	)
}

func project(history core.DomainEvents, bookID core.BookID) state {
	var s state

	for _, event := range history {
		if entry, ok := core.BorrowEventFrom(event); ok && entry.BookID == bookID && entry.Title != "" {
			s.lastKnownTitle = entry.Title
		}
	}

	return s
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
