package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/doug-martin/goqu/v9"
)

const (
	schemaVersion    = 1
	metaKeySchemaVer = "schema_version"
)

var metaTable = `CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`

var migrations = map[Dialect][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			year INTEGER NOT NULL DEFAULT 0,
			image TEXT,
			copies INTEGER NOT NULL DEFAULT 1 CHECK (copies >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT ''
		)`,
	},
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS books (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			year INTEGER NOT NULL DEFAULT 0,
			image TEXT,
			copies INTEGER NOT NULL DEFAULT 1 CHECK (copies >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT ''
		)`,
	},
}

// Migrate brings the schema to the current version inside one transaction.
func (s *Store) Migrate(ctx context.Context) error {
	if s.dialect == DialectSQLite {
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			return s.storageFailed(err)
		}
	}

	if _, err := s.db.ExecContext(ctx, metaTable); err != nil {
		return s.storageFailed(err)
	}

	current, err := s.currentSchemaVersion(ctx)
	if err != nil {
		return s.storageFailed(err)
	}

	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.storageFailed(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, statement := range migrations[s.dialect] {
		if _, err = tx.ExecContext(ctx, statement); err != nil {
			return s.storageFailed(err)
		}
	}

	deleteQuery, deleteArgs, err := s.goqu.Delete("meta").Where(goqu.C("key").Eq(metaKeySchemaVer)).ToSQL()
	if err != nil {
		return s.storageFailed(err)
	}

	if _, err = tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return s.storageFailed(err)
	}

	insert, insertArgs, err := s.goqu.Insert("meta").
		Rows(goqu.Record{"key": metaKeySchemaVer, "value": strconv.Itoa(schemaVersion)}).
		ToSQL()
	if err != nil {
		return s.storageFailed(err)
	}

	if _, err = tx.ExecContext(ctx, insert, insertArgs...); err != nil {
		return s.storageFailed(err)
	}

	if err = tx.Commit(); err != nil {
		return s.storageFailed(err)
	}

	s.logDebug(logMsgMigrated, logAttrSchemaVersion, schemaVersion)

	return nil
}

func (s *Store) currentSchemaVersion(ctx context.Context) (int, error) {
	query, args, err := s.goqu.From("meta").Select("value").Where(goqu.C("key").Eq(metaKeySchemaVer)).ToSQL()
	if err != nil {
		return 0, err
	}

	var raw string
	if err = s.db.GetContext(ctx, &raw, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, err
	}

	return strconv.Atoi(raw)
}
