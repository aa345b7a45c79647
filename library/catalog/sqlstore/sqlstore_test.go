package sqlstore_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog/catalogtest"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog/sqlstore"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
	"github.com/AntonStoeckl/library-ledger-go/library/users/userstest"
	"github.com/AntonStoeckl/library-ledger-go/testutil/logspy"
)

func Test_SQLiteStore_Books(t *testing.T) {
	catalogtest.RunStoreSuite(t, func(t *testing.T) catalog.Store {
		return givenSQLiteStore(t)
	})
}

func Test_SQLiteStore_Users(t *testing.T) {
	userstest.RunStoreSuite(t, func(t *testing.T) users.Store {
		return givenSQLiteStore(t)
	})
}

func Test_OpenSQLite_When_ReopeningExistingDatabase_KeepsData(t *testing.T) {
	// setup
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "library.db")

	// arrange
	first, err := sqlstore.OpenSQLite(ctx, path)
	require.NoError(t, err)
	id := catalogtest.GivenBookWasAdded(t, first, "Dune", "Frank Herbert")
	require.NoError(t, first.Close())

	// act
	second, err := sqlstore.OpenSQLite(ctx, path)

	// assert
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })
	book, err := second.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
}

func Test_SQLiteStore_When_BookIsDeleted_IDIsNotReused(t *testing.T) {
	// setup
	ctx := context.Background()
	store := givenSQLiteStore(t)

	// arrange
	first := catalogtest.GivenBookWasAdded(t, store, "Dune", "Frank Herbert")
	second := catalogtest.GivenBookWasAdded(t, store, "Emma", "Jane Austen")
	require.NoError(t, store.Delete(ctx, second))

	// act
	third := catalogtest.GivenBookWasAdded(t, store, "Persuasion", "Jane Austen")

	// assert
	assert.Equal(t, first+1, second)
	assert.Greater(t, third, second)
}

func Test_SQLiteStore_Update_When_ImageIsCleared(t *testing.T) {
	// setup
	ctx := context.Background()
	store := givenSQLiteStore(t)
	image := "covers/dune.jpg"
	empty := ""

	// arrange
	id, err := store.Add(ctx, catalogtest.GivenNewBook(t, "Dune", "Frank Herbert", 1965, &image, 3))
	require.NoError(t, err)

	// act
	updated, err := store.Update(ctx, id, core.BookPatch{Image: &empty})

	// assert
	require.NoError(t, err)
	assert.Nil(t, updated.Image)
	book, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, book.Image)
	assert.Equal(t, 3, book.Copies)
}

func Test_SQLiteStore_LogsStatements(t *testing.T) {
	// setup
	logger, spy := logspy.NewLogger()
	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "library.db"), sqlstore.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// act
	_, err = store.List(context.Background(), "")

	// assert
	require.NoError(t, err)
	assert.True(t, spy.HasLog(slog.LevelDebug, "sql store schema migrated"))
	assert.True(t, spy.HasLogWithAttr(slog.LevelDebug, "executed sql", "query"))
}

func Test_SQLiteStore_When_DatabaseIsClosed(t *testing.T) {
	// setup
	logger, spy := logspy.NewLogger()
	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "library.db"), sqlstore.WithLogger(logger))
	require.NoError(t, err)

	// arrange
	require.NoError(t, store.Close())

	// act
	_, err = store.List(context.Background(), "")

	// assert
	assert.ErrorIs(t, err, core.ErrStorage)
	assert.True(t, spy.HasLogWithAttr(slog.LevelError, "sql store operation failed", "error"))
}

func Test_New_When_ArgumentsAreInvalid(t *testing.T) {
	// act
	_, nilErr := sqlstore.New(context.Background(), nil, sqlstore.DialectSQLite)
	_, dialectErr := sqlstore.New(context.Background(), &sqlx.DB{}, sqlstore.Dialect("mysql"))

	// assert
	assert.ErrorIs(t, nilErr, sqlstore.ErrNilDatabase)
	assert.ErrorIs(t, dialectErr, sqlstore.ErrUnsupportedDialect)
}

func givenSQLiteStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	store, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err, "error in arranging test data")
	t.Cleanup(func() { _ = store.Close() })

	return store
}
