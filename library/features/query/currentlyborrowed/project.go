package currentlyborrowed

import (
	"cmp"
	"maps"
	"slices"

	"github.com/AntonStoeckl/library-ledger-go/eventstore"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

// ProjectBooksCurrentlyBorrowed is a pure function that projects the books a user currently holds.
//
// Query Logic:
//
//	GIVEN: A user with Username
//	WHEN: BooksCurrentlyBorrowed query is executed
//	THEN: every book whose latest entry of this user is a borrow, with the time of that borrow
//	EXCLUDES: Books that have been returned since
func ProjectBooksCurrentlyBorrowed(history core.DomainEvents, query Query) BooksCurrentlyBorrowed {
	borrowed := make(map[core.BookID]BorrowedBook)

	for _, event := range history {
		switch e := event.(type) {
		case core.BookBorrowed:
			if e.Username == query.Username {
				borrowed[e.BookID] = BorrowedBook{
					BookID:     e.BookID,
					Title:      e.Title,
					BorrowedAt: e.OccurredAt,
				}
			}

		case core.BookReturned:
			if e.Username == query.Username {
				delete(borrowed, e.BookID)
			}
		}
	}

	books := slices.Collect(maps.Values(borrowed))
	slices.SortFunc(books, func(a, b BorrowedBook) int {
		if c := a.BorrowedAt.Compare(b.BorrowedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.BookID, b.BookID)
	})

	return BooksCurrentlyBorrowed{
		Username: query.Username,
		Books:    books,
		Count:    len(books),
	}
}

// BuildEventFilter creates the filter for all ledger entries of the specified user.
func BuildEventFilter(username core.UsernameString) eventstore.Filter {
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
