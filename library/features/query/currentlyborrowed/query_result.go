package currentlyborrowed

import (
	"time"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

// BorrowedBook is one book a user currently holds.
type BorrowedBook struct {
	BookID     core.BookID `json:"book_id"`
	Title      string      `json:"title"`
	BorrowedAt time.Time   `json:"borrowed_at"`
}

// BooksCurrentlyBorrowed is the query result, ordered by BorrowedAt (oldest first).
type BooksCurrentlyBorrowed struct {
	Username core.UsernameString `json:"username"`
	Books    []BorrowedBook      `json:"books"`
	Count    int                 `json:"count"`
}
