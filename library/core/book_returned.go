package core

import (
	"time"
)

// BookReturnedEventType is the event type identifier.
const BookReturnedEventType = "BookReturned"

// BookReturned is appended when a user returns a book.
type BookReturned struct {
	Username   UsernameString `json:"username"`
	BookID     BookID         `json:"book_id"`
	Title      string         `json:"title"`
	Action     Action         `json:"action"`
	OccurredAt OccurredAt     `json:"datetime"`
}

// BuildBookReturned creates a new BookReturned event.
func BuildBookReturned(username UsernameString, bookID BookID, title string, occurredAt time.Time) BookReturned {
	return BookReturned{
		Username:   username,
		BookID:     bookID,
		Title:      title,
		Action:     ActionReturned,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookReturned) EventType() string {
	return BookReturnedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookReturned) HasOccurredAt() time.Time {
	return e.OccurredAt
}
