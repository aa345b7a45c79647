package availablecopies

import (
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

const (
	queryType = "CopiesAvailable"
)

// Query asks how many of the Copies owned of a book are not held by a user.
type Query struct {
	BookID core.BookID
	Copies int
}

// BuildQuery creates a new Query.
func BuildQuery(bookID core.BookID, copies int) Query {
	return Query{
		BookID: bookID,
		Copies: copies,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
