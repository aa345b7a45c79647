package borrowhistory

import (
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

// BorrowHistory is the query result, oldest entry first.
type BorrowHistory struct {
	Username core.UsernameString `json:"username,omitempty"`
	Entries  []core.BorrowEvent  `json:"entries"`
	Count    int                 `json:"count"`
}
