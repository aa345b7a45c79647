package core

import (
	"time"
)

// BookID identifies a live book in the catalog. Valid ids are > 0.
type BookID = int

// UsernameString identifies a user. Usernames are compared case-sensitively.
type UsernameString = string

// OccurredAt represents when an event occurred.
type OccurredAt = time.Time

// ToOccurredAt converts a time to OccurredAt with UTC normalization and microsecond precision.
func ToOccurredAt(t time.Time) OccurredAt {
	return t.UTC().Truncate(time.Microsecond)
}
