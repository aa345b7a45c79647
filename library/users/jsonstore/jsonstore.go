// Package jsonstore keeps the users in a JSON file: { "users": [ {id,username,password,role,email} ] }.
package jsonstore

import (
	"context"
	"errors"
	"io/fs"
	"slices"
	"sync"

	"github.com/AntonStoeckl/library-ledger-go/internal/jsonfile"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
)

const (
	defaultFileMode     = fs.FileMode(0o600)
	logMsgStorageFailed = "users file access failed"
	logAttrError        = "error"
	logAttrFile         = "file"
)

// ErrEmptyFilePath is returned by New for an empty path.
var ErrEmptyFilePath = errors.New("users file path must not be empty")

type document struct {
	Users []core.User `json:"users"`
}

// Store implements users.Store on top of a JSON file.
type Store struct {
	mu     sync.Mutex
	path   string
	logger shell.Logger
}

// New creates a Store for the users file at path, which does not need to exist yet.
func New(path string, logger shell.Logger) (*Store, error) {
	if path == "" {
		return nil, ErrEmptyFilePath
	}

	return &Store{path: path, logger: logger}, nil
}

func (s *Store) CreateUser(ctx context.Context, user core.User) (core.User, error) {
	if err := ctx.Err(); err != nil {
		return core.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return core.User{}, err
	}

	nextID := 1
	for _, u := range doc.Users {
		if u.Username == user.Username {
			return core.User{}, users.DuplicateError(user.Username)
		}

		nextID = max(nextID, u.ID+1)
	}

	user.ID = nextID
	doc.Users = append(doc.Users, user)

	if err = jsonfile.WriteAtomic(s.path, doc, defaultFileMode); err != nil {
		return core.User{}, s.storageFailed(err)
	}

	return user, nil
}

func (s *Store) GetUser(ctx context.Context, username core.UsernameString) (core.User, error) {
	if err := ctx.Err(); err != nil {
		return core.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return core.User{}, err
	}

	idx := slices.IndexFunc(doc.Users, func(u core.User) bool { return u.Username == username })
	if idx < 0 {
		return core.User{}, users.NotFoundError(username)
	}

	return doc.Users[idx], nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	return doc.Users, nil
}

func (s *Store) load() (document, error) {
	doc := document{Users: make([]core.User, 0)}

	if _, err := jsonfile.Read(s.path, &doc); err != nil {
		return document{}, s.storageFailed(err)
	}

	if doc.Users == nil {
		doc.Users = make([]core.User, 0)
	}

	return doc, nil
}

func (s *Store) storageFailed(err error) error {
	if s.logger != nil {
		s.logger.Error(logMsgStorageFailed, logAttrError, err.Error(), logAttrFile, s.path)
	}

	return errors.Join(core.ErrStorage, err)
}
