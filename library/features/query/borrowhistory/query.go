package borrowhistory

import (
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

const (
	queryType = "BorrowHistory"
)

// Query selects the ledger entries of Username, or of all users when Username is empty.
type Query struct {
	Username core.UsernameString
}

// BuildQuery creates a new Query.
func BuildQuery(username core.UsernameString) Query {
	return Query{
		Username: username,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

// AllUsers reports whether the query is not restricted to one user.
func (q Query) AllUsers() bool {
	return q.Username == ""
}
