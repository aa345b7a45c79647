package core

import "time"

// Action is the ledger action of a BorrowEvent.
type Action string

const (
	ActionBorrowed Action = "borrowed"
	ActionReturned Action = "returned"
)

// Payload keys shared by BookBorrowed and BookReturned, used to build event filters.
const (
	PayloadKeyUsername = "username"
	PayloadKeyBookID   = "book_id"
)

// BorrowEvent is the read model of one ledger entry, as shown to users.
type BorrowEvent struct {
	Username UsernameString `json:"username"`
	BookID   BookID         `json:"book_id"`
	Title    string         `json:"title"`
	Action   Action         `json:"action"`
	Datetime time.Time      `json:"datetime"`
}

// BorrowEventFrom converts a ledger domain event. The second return value is false for other events.
func BorrowEventFrom(event DomainEvent) (BorrowEvent, bool) {
	switch e := event.(type) {
	case BookBorrowed:
		return BorrowEvent{Username: e.Username, BookID: e.BookID, Title: e.Title, Action: ActionBorrowed, Datetime: e.OccurredAt}, true
	case BookReturned:
		return BorrowEvent{Username: e.Username, BookID: e.BookID, Title: e.Title, Action: ActionReturned, Datetime: e.OccurredAt}, true
	default:
		return BorrowEvent{}, false
	}
}
