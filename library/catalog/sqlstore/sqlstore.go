package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect import
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shell"
)

// Dialect selects the SQL flavor, its value is also the goqu dialect name.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"

	sqliteDSNFormat      = "file:%s?_busy_timeout=5000&_foreign_keys=1"
	pqUniqueViolation    = "23505"
	logMsgStorageFailed  = "sql store operation failed"
	logMsgMigrated       = "sql store schema migrated"
	logMsgSQLExecuted    = "executed sql"
	logAttrError         = "error"
	logAttrQuery         = "query"
	logAttrSchemaVersion = "schema_version"
)

var (
	// ErrUnsupportedDialect is returned by New for dialects other than sqlite3 and postgres.
	ErrUnsupportedDialect = errors.New("unsupported sql dialect")

	// ErrNilDatabase is returned by New for a nil *sqlx.DB.
	ErrNilDatabase = errors.New("database must not be nil")
)

// Store implements catalog.Store and users.Store.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	goqu    goqu.DialectWrapper
	logger  shell.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger logs statements at debug level and failures at error level.
func WithLogger(logger shell.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// OpenSQLite opens (or creates) the SQLite database at path and migrates it.
func OpenSQLite(ctx context.Context, path string, options ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sqlx.Open(string(DialectSQLite), fmt.Sprintf(sqliteDSNFormat, path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	store, err := New(ctx, db, DialectSQLite, options...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// New wraps an open database and migrates it. The Store owns db from now on.
func New(ctx context.Context, db *sqlx.DB, dialect Dialect, options ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}

	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, dialect)
	}

	s := &Store{
		db:      db,
		dialect: dialect,
		goqu:    goqu.Dialect(string(dialect)),
	}

	for _, option := range options {
		option(s)
	}

	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) storageFailed(err error) error {
	if s.logger != nil {
		s.logger.Error(logMsgStorageFailed, logAttrError, err.Error())
	}

	return errors.Join(core.ErrStorage, err)
}

func (s *Store) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Store) logQuery(query string) {
	s.logDebug(logMsgSQLExecuted, logAttrQuery, query)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	return false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
