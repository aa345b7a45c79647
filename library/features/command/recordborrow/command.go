package recordborrow

import (
	"time"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

const (
	commandType = "RecordBorrow"
)

// Command represents the intent to record that a user borrowed a book.
// Title and Copies are the catalog values at the time of the command.
type Command struct {
	Username   core.UsernameString
	BookID     core.BookID
	Title      string
	Copies     int
	Strict     bool
	OccurredAt core.OccurredAt
}

// CommandType returns the type identifier for this command.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	username core.UsernameString,
	bookID core.BookID,
	title string,
	copies int,
	strict bool,
	occurredAt time.Time,
) Command {
	return Command{
		Username:   username,
		BookID:     bookID,
		Title:      title,
		Copies:     copies,
		Strict:     strict,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
