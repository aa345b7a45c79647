package catalog

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
)

const (
	logMsgBookAdded   = "book added"
	logMsgBookUpdated = "book updated"
	logMsgBookDeleted = "book deleted"
	logAttrBookID     = "book_id"
	logAttrTitle      = "title"
)

// Store persists books. Implementations return core.ErrNotFound for unknown ids and
// wrap I/O failures with core.ErrStorage. Update must validate the patched record.
type Store interface {
	Add(ctx context.Context, book core.NewBook) (core.BookID, error)
	List(ctx context.Context, filter string) ([]core.Book, error)
	Get(ctx context.Context, id core.BookID) (core.Book, error)
	Update(ctx context.Context, id core.BookID, patch core.BookPatch) (core.Book, error)
	Delete(ctx context.Context, id core.BookID) error
}

// AddRequest is the input of Catalog.Add. A nil Copies means the configured default.
type AddRequest struct {
	Title  string
	Author string
	Year   int
	Image  *string
	Copies *int
}

// Catalog is the entry point for book operations.
type Catalog struct {
	store         Store
	defaultCopies int
	logger        shell.Logger
}

// Option configures a Catalog.
type Option func(*Catalog) error

// WithDefaultCopies sets the number of copies of books added without an explicit count.
func WithDefaultCopies(copies int) Option {
	return func(c *Catalog) error {
		if copies < 0 {
			return fmt.Errorf("%w: default copies must not be negative", core.ErrValidation)
		}

		c.defaultCopies = copies

		return nil
	}
}

// WithLogger sets the logger for the Catalog.
func WithLogger(logger shell.Logger) Option {
	return func(c *Catalog) error {
		c.logger = logger
		return nil
	}
}

// New creates a Catalog on top of store.
func New(store Store, options ...Option) (*Catalog, error) {
	c := &Catalog{
		store:         store,
		defaultCopies: core.DefaultCopies,
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Add validates the request and stores a new book.
func (c *Catalog) Add(ctx context.Context, req AddRequest) (core.BookID, error) {
	copies := c.defaultCopies
	if req.Copies != nil {
		copies = *req.Copies
	}

	nb, err := core.BuildNewBook(req.Title, req.Author, req.Year, req.Image, copies)
	if err != nil {
		return 0, err
	}

	id, err := c.store.Add(ctx, nb)
	if err != nil {
		return 0, err
	}

	if c.logger != nil {
		c.logger.Info(logMsgBookAdded, logAttrBookID, id, logAttrTitle, nb.Title)
	}

	return id, nil
}

// List returns all books, or those whose title or author contain filter (case-insensitive), in insertion order.
func (c *Catalog) List(ctx context.Context, filter string) ([]core.Book, error) {
	return c.store.List(ctx, filter)
}

// Get returns one book.
func (c *Catalog) Get(ctx context.Context, id core.BookID) (core.Book, error) {
	if id <= 0 {
		return core.Book{}, notFound(id)
	}

	return c.store.Get(ctx, id)
}

// Update changes the patched fields of a book and returns the updated record.
func (c *Catalog) Update(ctx context.Context, id core.BookID, patch core.BookPatch) (core.Book, error) {
	if id <= 0 {
		return core.Book{}, notFound(id)
	}

	if patch.IsEmpty() {
		return c.store.Get(ctx, id)
	}

	book, err := c.store.Update(ctx, id, patch)
	if err != nil {
		return core.Book{}, err
	}

	if c.logger != nil {
		c.logger.Info(logMsgBookUpdated, logAttrBookID, id)
	}

	return book, nil
}

// Delete removes a book for good.
func (c *Catalog) Delete(ctx context.Context, id core.BookID) error {
	if id <= 0 {
		return notFound(id)
	}

	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}

	if c.logger != nil {
		c.logger.Info(logMsgBookDeleted, logAttrBookID, id)
	}

	return nil
}

func notFound(id core.BookID) error {
	return fmt.Errorf("%w: book %d", core.ErrNotFound, id)
}

// NotFoundError builds the error stores return for an unknown book id.
func NotFoundError(id core.BookID) error {
	return notFound(id)
}
