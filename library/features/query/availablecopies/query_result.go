package availablecopies

import (
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

// Availability of one book. Borrowed counts users holding the book, Available is never negative.
type Availability struct {
	BookID    core.BookID           `json:"book_id"`
	Copies    int                   `json:"copies"`
	Borrowed  int                   `json:"borrowed"`
	Available int                   `json:"available"`
	Holders   []core.UsernameString `json:"holders"`
}
