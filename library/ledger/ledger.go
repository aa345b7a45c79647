// Package ledger records borrows and returns of catalog books and answers who holds what.
//
// Ledger entries are keyed by book id. The title stored with an entry is the catalog title at the
// time of the entry; reads show the current catalog title and fall back to the stored title once
// the book has been deleted.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/recordborrow"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/recordreturn"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/availablecopies"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/borrowhistory"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/currentlyborrowed"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
)

const (
	logMsgBorrowRecorded = "borrow recorded"
	logMsgReturnRecorded = "return recorded"
	logAttrUsername      = "username"
	logAttrBookID        = "book_id"
	logAttrIdempotent    = "idempotent"
	logAttrAttempts      = "attempts"
)

// ErrMissingDependency is returned by New for a nil event store or book lookup.
var ErrMissingDependency = errors.New("ledger dependency must not be nil")

// EventStore is the append-only log the ledger is stored in.
type EventStore interface {
	recordborrow.EventStore
}

// BookLookup resolves book ids, *catalog.Catalog implements it.
type BookLookup interface {
	Get(ctx context.Context, id core.BookID) (core.Book, error)
}

// Ledger is the entry point for borrow and return operations.
type Ledger struct {
	books        BookLookup
	strict       bool
	clock        func() time.Time
	logger       shell.Logger
	retryOptions []shell.RetryOption

	borrow       recordborrow.CommandHandler
	giveBack     recordreturn.CommandHandler
	currently    currentlyborrowed.QueryHandler
	history      borrowhistory.QueryHandler
	availability availablecopies.QueryHandler
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithStrictAvailability refuses borrows of books whose copies are all held.
func WithStrictAvailability(strict bool) Option {
	return func(l *Ledger) {
		l.strict = strict
	}
}

// WithClock sets the source of event timestamps.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// WithLogger sets the logger for the Ledger and its handlers.
func WithLogger(logger shell.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithRetryOptions configures the retries of the command handlers on concurrency conflicts.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(l *Ledger) {
		l.retryOptions = opts
	}
}

// New creates a Ledger stored in eventStore whose book ids are resolved by books.
func New(eventStore EventStore, books BookLookup, opts ...Option) (*Ledger, error) {
	if eventStore == nil || books == nil {
		return nil, ErrMissingDependency
	}

	l := &Ledger{
		books: books,
		clock: time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	retryOptions := l.retryOptions
	if l.logger != nil {
		retryOptions = append(retryOptions, shell.WithRetryLogger(l.logger))
	}

	l.borrow = recordborrow.NewCommandHandler(eventStore, recordborrow.WithRetryOptions(retryOptions...))
	l.giveBack = recordreturn.NewCommandHandler(eventStore, recordreturn.WithRetryOptions(retryOptions...))
	l.currently = currentlyborrowed.NewQueryHandler(eventStore, currentlyborrowed.WithLogging(l.logger))
	l.history = borrowhistory.NewQueryHandler(eventStore, borrowhistory.WithLogging(l.logger))
	l.availability = availablecopies.NewQueryHandler(eventStore, availablecopies.WithLogging(l.logger))

	return l, nil
}

// StrictAvailability reports whether borrows are checked against the copies owned.
func (l *Ledger) StrictAvailability() bool {
	return l.strict
}

// RecordBorrow records that username borrowed the book.
// With strict availability it fails with core.ErrInsufficientCopies when no copy is left, even for a
// user who holds one. While copies are left, borrowing a book the user already holds changes nothing.
func (l *Ledger) RecordBorrow(ctx context.Context, username string, bookID core.BookID) error {
	user, err := validUsername(username)
	if err != nil {
		return err
	}

	book, err := l.books.Get(ctx, bookID)
	if err != nil {
		return err
	}

	result, err := l.borrow.Handle(ctx, recordborrow.BuildCommand(user, book.ID, book.Title, book.Copies, l.strict, l.clock()))
	if err != nil {
		return storageError(err)
	}

	l.logRecorded(logMsgBorrowRecorded, user, bookID, result)

	return nil
}

// RecordReturn records that username returned the book. A matching borrow is not required.
// Books deleted from the catalog can still be returned if the ledger knows them.
func (l *Ledger) RecordReturn(ctx context.Context, username string, bookID core.BookID) error {
	user, err := validUsername(username)
	if err != nil {
		return err
	}

	var title string

	book, err := l.books.Get(ctx, bookID)
	switch {
	case err == nil:
		title = book.Title
	case !errors.Is(err, core.ErrNotFound):
		return err
	}

	result, err := l.giveBack.Handle(ctx, recordreturn.BuildCommand(user, bookID, title, l.clock()))
	if err != nil {
		return storageError(err)
	}

	l.logRecorded(logMsgReturnRecorded, user, bookID, result)

	return nil
}

// CurrentlyBorrowed lists the books username holds, oldest borrow first.
func (l *Ledger) CurrentlyBorrowed(ctx context.Context, username string) ([]currentlyborrowed.BorrowedBook, error) {
	user, err := validUsername(username)
	if err != nil {
		return nil, err
	}

	result, err := l.currently.Handle(ctx, currentlyborrowed.BuildQuery(user))
	if err != nil {
		return nil, storageError(err)
	}

	titles := newTitleResolver(l.books)
	for i, b := range result.Books {
		if result.Books[i].Title, err = titles.resolve(ctx, b.BookID, b.Title); err != nil {
			return nil, err
		}
	}

	return result.Books, nil
}

// History lists the ledger entries of username, or of all users when username is empty, oldest first.
func (l *Ledger) History(ctx context.Context, username string) ([]core.BorrowEvent, error) {
	result, err := l.history.Handle(ctx, borrowhistory.BuildQuery(core.NormalizeUsername(username)))
	if err != nil {
		return nil, storageError(err)
	}

	titles := newTitleResolver(l.books)
	for i, e := range result.Entries {
		if result.Entries[i].Title, err = titles.resolve(ctx, e.BookID, e.Title); err != nil {
			return nil, err
		}
	}

	return result.Entries, nil
}

// CopiesAvailable reports how many copies of a catalog book are not held by a user.
func (l *Ledger) CopiesAvailable(ctx context.Context, bookID core.BookID) (availablecopies.Availability, error) {
	book, err := l.books.Get(ctx, bookID)
	if err != nil {
		return availablecopies.Availability{}, err
	}

	availability, err := l.availability.Handle(ctx, availablecopies.BuildQuery(book.ID, book.Copies))
	if err != nil {
		return availablecopies.Availability{}, storageError(err)
	}

	return availability, nil
}

func (l *Ledger) logRecorded(msg string, username core.UsernameString, bookID core.BookID, result shell.HandlerResult) {
	if l.logger == nil {
		return
	}

	l.logger.Info(
		msg,
		logAttrUsername, username,
		logAttrBookID, bookID,
		logAttrIdempotent, result.Idempotent,
		logAttrAttempts, result.RetryAttempts,
	)
}

// storageError marks failures of the event store as core.ErrStorage, domain errors pass unchanged.
func storageError(err error) error {
	for _, known := range []error{
		core.ErrValidation,
		core.ErrNotFound,
		core.ErrDuplicate,
		core.ErrInsufficientCopies,
		core.ErrStorage,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	return errors.Join(core.ErrStorage, err)
}

func validUsername(username string) (core.UsernameString, error) {
	user := core.NormalizeUsername(username)
	if user == "" {
		return "", fmt.Errorf("%w: username must not be empty", core.ErrValidation)
	}

	return user, nil
}

// titleResolver looks up each book id at most once per read.
type titleResolver struct {
	books  BookLookup
	titles map[core.BookID]string
}

func newTitleResolver(books BookLookup) *titleResolver {
	return &titleResolver{books: books, titles: make(map[core.BookID]string)}
}

func (r *titleResolver) resolve(ctx context.Context, id core.BookID, fallback string) (string, error) {
	if title, ok := r.titles[id]; ok {
		if title == "" {
			return fallback, nil
		}

		return title, nil
	}

	book, err := r.books.Get(ctx, id)
	switch {
	case err == nil:
		r.titles[id] = book.Title
		return book.Title, nil
	case errors.Is(err, core.ErrNotFound):
		r.titles[id] = ""
		return fallback, nil
	default:
		return "", err
	}
}
