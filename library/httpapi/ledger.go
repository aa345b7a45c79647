package httpapi

import (
	"context"
	"net/http"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/currentlyborrowed"
)

type borrowedResponse struct {
	Username core.UsernameString              `json:"username"`
	Books    []currentlyborrowed.BorrowedBook `json:"books"`
	Count    int                              `json:"count"`
}

type historyResponse struct {
	Username core.UsernameString `json:"username,omitempty"`
	Entries  []core.BorrowEvent  `json:"entries"`
	Count    int                 `json:"count"`
}

type recordFunc func(ctx context.Context, username string, bookID core.BookID) error

func (s *Server) borrow(w http.ResponseWriter, r *http.Request) {
	s.record(w, r, s.lib.Ledger.RecordBorrow)
}

func (s *Server) returnBook(w http.ResponseWriter, r *http.Request) {
	s.record(w, r, s.lib.Ledger.RecordReturn)
}

// record appends a ledger entry for the calling user and answers with the book's availability.
func (s *Server) record(w http.ResponseWriter, r *http.Request, recordFn recordFunc) {
	p, _ := principalFrom(r.Context())

	id, err := bookIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err = recordFn(r.Context(), p.Username, id); err != nil {
		s.writeError(w, err)
		return
	}

	availability, err := s.lib.Ledger.CopiesAvailable(r.Context(), id)
	if err != nil {
		// the book may have been deleted from the catalog, the entry is recorded anyway
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, availability)
}

func (s *Server) myBorrowed(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	books, err := s.lib.Ledger.CurrentlyBorrowed(r.Context(), p.Username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if books == nil {
		books = []currentlyborrowed.BorrowedBook{}
	}

	writeJSON(w, http.StatusOK, borrowedResponse{Username: p.Username, Books: books, Count: len(books)})
}

func (s *Server) myHistory(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	s.writeHistory(w, r, p.Username)
}

// ledger returns the history of one user, or of everyone without the username parameter.
func (s *Server) ledger(w http.ResponseWriter, r *http.Request) {
	s.writeHistory(w, r, r.URL.Query().Get("username"))
}

func (s *Server) writeHistory(w http.ResponseWriter, r *http.Request, username string) {
	entries, err := s.lib.Ledger.History(r.Context(), username)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if entries == nil {
		entries = []core.BorrowEvent{}
	}

	writeJSON(w, http.StatusOK, historyResponse{Username: username, Entries: entries, Count: len(entries)})
}
