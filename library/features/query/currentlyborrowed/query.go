package currentlyborrowed

import (
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

const (
	queryType = "BooksCurrentlyBorrowed"
)

// Query represents the intent to list the books a user currently holds.
type Query struct {
	Username core.UsernameString
}

// BuildQuery creates a new Query for the given user.
func BuildQuery(username core.UsernameString) Query {
	return Query{
		Username: username,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
