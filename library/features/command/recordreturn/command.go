package recordreturn

import (
	"time"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

const (
	commandType = "RecordReturn"
)

// Command represents the intent to record that a user returned a book.
// An empty Title means the book is unknown to the catalog.
type Command struct {
	Username   core.UsernameString
	BookID     core.BookID
	Title      string
	OccurredAt core.OccurredAt
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(username core.UsernameString, bookID core.BookID, title string, occurredAt time.Time) Command {
	return Command{
		Username:   username,
		BookID:     bookID,
		Title:      title,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
