// Package jsonstore keeps the catalog in a single JSON file: [ {id,title,author,year,image,copies} ].
//
// The highest id ever handed out is kept next to the books file in <path>.seq ({"last_id": n}),
// so ids of deleted books are never reused. Without that file the ids continue after max(id).
package jsonstore

import (
	"context"
	"errors"
	"io/fs"
	"slices"
	"sync"

	"github.com/AntonStoeckl/library-ledger-go/internal/jsonfile"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
)

const (
	defaultFileMode     = fs.FileMode(0o644)
	logMsgStorageFailed = "books file access failed"
	logAttrError        = "error"
	logAttrFile         = "file"

	sequenceFileSuffix = ".seq"
)

type sequence struct {
	LastID core.BookID `json:"last_id"`
}

// ErrEmptyFilePath is returned by New for an empty path.
var ErrEmptyFilePath = errors.New("books file path must not be empty")

// Store implements catalog.Store on top of a JSON file.
type Store struct {
	mu       sync.Mutex
	path     string
	fileMode fs.FileMode
	logger   shell.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for storage failures.
func WithLogger(logger shell.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithFileMode sets the permissions of the books file.
func WithFileMode(mode fs.FileMode) Option {
	return func(s *Store) {
		s.fileMode = mode
	}
}

// New creates a Store for the books file at path, which does not need to exist yet.
func New(path string, options ...Option) (*Store, error) {
	if path == "" {
		return nil, ErrEmptyFilePath
	}

	s := &Store{path: path, fileMode: defaultFileMode}
	for _, option := range options {
		option(s)
	}

	return s, nil
}

func (s *Store) Add(ctx context.Context, book core.NewBook) (core.BookID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return 0, err
	}

	seq, err := s.loadSequence()
	if err != nil {
		return 0, err
	}

	id := seq.LastID + 1
	for _, b := range books {
		id = max(id, b.ID+1)
	}

	if err = s.saveSequence(sequence{LastID: id}); err != nil {
		return 0, err
	}

	books = append(books, book.ToBook(id))

	if err = s.save(books); err != nil {
		return 0, err
	}

	return id, nil
}

func (s *Store) List(ctx context.Context, filter string) ([]core.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(books, func(b core.Book) bool { return !b.Matches(filter) }), nil
}

func (s *Store) Get(ctx context.Context, id core.BookID) (core.Book, error) {
	if err := ctx.Err(); err != nil {
		return core.Book{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return core.Book{}, err
	}

	idx := slices.IndexFunc(books, func(b core.Book) bool { return b.ID == id })
	if idx < 0 {
		return core.Book{}, catalog.NotFoundError(id)
	}

	return books[idx], nil
}

func (s *Store) Update(ctx context.Context, id core.BookID, patch core.BookPatch) (core.Book, error) {
	if err := ctx.Err(); err != nil {
		return core.Book{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return core.Book{}, err
	}

	idx := slices.IndexFunc(books, func(b core.Book) bool { return b.ID == id })
	if idx < 0 {
		return core.Book{}, catalog.NotFoundError(id)
	}

	updated, err := books[idx].Apply(patch)
	if err != nil {
		return core.Book{}, err
	}

	books[idx] = updated

	if err = s.save(books); err != nil {
		return core.Book{}, err
	}

	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id core.BookID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.load()
	if err != nil {
		return err
	}

	remaining := slices.DeleteFunc(slices.Clone(books), func(b core.Book) bool { return b.ID == id })
	if len(remaining) == len(books) {
		return catalog.NotFoundError(id)
	}

	return s.save(remaining)
}

func (s *Store) load() ([]core.Book, error) {
	books := make([]core.Book, 0)

	if _, err := jsonfile.Read(s.path, &books); err != nil {
		return nil, s.storageFailed(err)
	}

	return books, nil
}

func (s *Store) save(books []core.Book) error {
	if err := jsonfile.WriteAtomic(s.path, books, s.fileMode); err != nil {
		return s.storageFailed(err)
	}

	return nil
}

func (s *Store) loadSequence() (sequence, error) {
	var seq sequence

	if _, err := jsonfile.Read(s.path+sequenceFileSuffix, &seq); err != nil {
		return sequence{}, s.storageFailed(err)
	}

	return seq, nil
}

// saveSequence runs before the books file is written, a failed add leaves a gap and never a reused id.
func (s *Store) saveSequence(seq sequence) error {
	if err := jsonfile.WriteAtomic(s.path+sequenceFileSuffix, seq, s.fileMode); err != nil {
		return s.storageFailed(err)
	}

	return nil
}

func (s *Store) storageFailed(err error) error {
	if s.logger != nil {
		s.logger.Error(logMsgStorageFailed, logAttrError, err.Error(), logAttrFile, s.path)
	}

	return errors.Join(core.ErrStorage, err)
}
