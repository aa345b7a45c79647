package core

import (
	"time"
)

// BookBorrowedEventType is the event type identifier.
const BookBorrowedEventType = "BookBorrowed"

// BookBorrowed is appended when a user borrows a copy of a book.
// Title is the catalog title at the time of the event, kept for display only.
type BookBorrowed struct {
	Username   UsernameString `json:"username"`
	BookID     BookID         `json:"book_id"`
	Title      string         `json:"title"`
	Action     Action         `json:"action"`
	OccurredAt OccurredAt     `json:"datetime"`
}

// BuildBookBorrowed creates a new BookBorrowed event.
func BuildBookBorrowed(username UsernameString, bookID BookID, title string, occurredAt time.Time) BookBorrowed {
	return BookBorrowed{
		Username:   username,
		BookID:     bookID,
		Title:      title,
		Action:     ActionBorrowed,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookBorrowed) EventType() string {
	return BookBorrowedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookBorrowed) HasOccurredAt() time.Time {
	return e.OccurredAt
}
