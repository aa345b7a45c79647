package sqlstore

import (
	"context"
	"slices"

	"github.com/doug-martin/goqu/v9"

	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

const tableBooks = "books"

var bookColumns = []any{"id", "title", "author", "year", "image", "copies"}

func (s *Store) Add(ctx context.Context, book core.NewBook) (core.BookID, error) {
	insert := s.goqu.Insert(tableBooks).Prepared(true).Rows(goqu.Record{
		"title":  book.Title,
		"author": book.Author,
		"year":   book.Year,
		"image":  book.Image,
		"copies": book.Copies,
	})

	if s.dialect == DialectPostgres {
		query, args, err := insert.Returning("id").ToSQL()
		if err != nil {
			return 0, s.storageFailed(err)
		}

		s.logQuery(query)

		var id core.BookID
		if err = s.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, s.storageFailed(err)
		}

		return id, nil
	}

	query, args, err := insert.ToSQL()
	if err != nil {
		return 0, s.storageFailed(err)
	}

	s.logQuery(query)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, s.storageFailed(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, s.storageFailed(err)
	}

	return core.BookID(id), nil
}

func (s *Store) List(ctx context.Context, filter string) ([]core.Book, error) {
	query, args, err := s.goqu.From(tableBooks).Prepared(true).Select(bookColumns...).Order(goqu.C("id").Asc()).ToSQL()
	if err != nil {
		return nil, s.storageFailed(err)
	}

	s.logQuery(query)

	books := make([]core.Book, 0)
	if err = s.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, s.storageFailed(err)
	}

	return slices.DeleteFunc(books, func(b core.Book) bool { return !b.Matches(filter) }), nil
}

func (s *Store) Get(ctx context.Context, id core.BookID) (core.Book, error) {
	return s.getBook(ctx, s.db, id)
}

func (s *Store) Update(ctx context.Context, id core.BookID, patch core.BookPatch) (core.Book, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.Book{}, s.storageFailed(err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := s.getBook(ctx, tx, id)
	if err != nil {
		return core.Book{}, err
	}

	updated, err := current.Apply(patch)
	if err != nil {
		return core.Book{}, err
	}

	query, args, err := s.goqu.Update(tableBooks).Prepared(true).
		Set(goqu.Record{
			"title":  updated.Title,
			"author": updated.Author,
			"year":   updated.Year,
			"image":  updated.Image,
			"copies": updated.Copies,
		}).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return core.Book{}, s.storageFailed(err)
	}

	s.logQuery(query)

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return core.Book{}, s.storageFailed(err)
	}

	if err = tx.Commit(); err != nil {
		return core.Book{}, s.storageFailed(err)
	}

	return updated, nil
}

func (s *Store) Delete(ctx context.Context, id core.BookID) error {
	query, args, err := s.goqu.Delete(tableBooks).Prepared(true).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return s.storageFailed(err)
	}

	s.logQuery(query)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return s.storageFailed(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return s.storageFailed(err)
	}

	if affected == 0 {
		return catalog.NotFoundError(id)
	}

	return nil
}

func (s *Store) getBook(ctx context.Context, q queryer, id core.BookID) (core.Book, error) {
	query, args, err := s.goqu.From(tableBooks).Prepared(true).Select(bookColumns...).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return core.Book{}, s.storageFailed(err)
	}

	s.logQuery(query)

	var book core.Book
	if err = q.GetContext(ctx, &book, query, args...); err != nil {
		if isNoRows(err) {
			return core.Book{}, catalog.NotFoundError(id)
		}

		return core.Book{}, s.storageFailed(err)
	}

	return book, nil
}

// queryer is satisfied by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}
