package recordborrow

import (
	"fmt"
	"strconv"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

// state represents the current state of one book projected from its event stream.
type state struct {
	heldByThisUser bool
	holders        int
}

// Decide determines whether a BookBorrowed event is appended. It is a pure function.
//
// Business Rules:
//
//	GIVEN: A book with BookID owning Copies copies
//	WHEN: RecordBorrow command is received
//	THEN: BookBorrowed event is generated
//	STRICT ERROR: ErrInsufficientCopies if every copy is held by a user
//	STRICT IDEMPOTENCY: If a copy is left and this user already holds the book, no event is generated
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	if command.Strict {
		s := project(history, command.BookID, command.Username)

		if command.Copies-s.holders <= 0 {
			return core.ErrorDecision(
				fmt.Errorf("%w: book %d has %d copies and all are borrowed", core.ErrInsufficientCopies, command.BookID, command.Copies),
			)
		}

		if s.heldByThisUser {
			return core.IdempotentDecision()
		}
	}

	return core.SuccessDecision(
		core.BuildBookBorrowed(command.Username, command.BookID, command.Title, command.OccurredAt),
	)
}

// project counts the users whose latest event for the book is a borrow.
func project(history core.DomainEvents, bookID core.BookID, username core.UsernameString) state {
	holding := make(map[core.UsernameString]bool)

	for _, event := range history {
		switch e := event.(type) {
		case core.BookBorrowed:
			if e.BookID == bookID {
				holding[e.Username] = true
			}

		case core.BookReturned:
			if e.BookID == bookID {
				holding[e.Username] = false
			}
		}
	}

	s := state{heldByThisUser: holding[username]}
	for _, holds := range holding {
		if holds {
			s.holders++
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
