package catalog_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog/jsonstore"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/testutil/logspy"
)

func Test_Catalog_Add_UsesTheDefaultCopies(t *testing.T) {
	// setup
	ctx := context.Background()
	logger, spy := logspy.NewLogger()
	c := givenCatalog(t, catalog.WithDefaultCopies(3), catalog.WithLogger(logger))

	// act
	id, err := c.Add(ctx, catalog.AddRequest{Title: "Dune", Author: "Frank Herbert", Year: 1965})

	// assert
	require.NoError(t, err)
	book, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, book.Copies)
	assert.True(t, spy.HasLogWithAttr(slog.LevelInfo, "book added", "book_id"))
}

func Test_Catalog_Add_When_TitleIsMissing(t *testing.T) {
	// setup
	c := givenCatalog(t)

	// act
	_, err := c.Add(context.Background(), catalog.AddRequest{Title: " ", Author: "Frank Herbert"})

	// assert
	assert.ErrorIs(t, err, core.ErrValidation)
}

func Test_Catalog_Search_ByAuthor(t *testing.T) {
	// setup
	ctx := context.Background()
	c := givenCatalog(t)

	// arrange
	hobbitID, err := c.Add(ctx, catalog.AddRequest{Title: "The Hobbit", Author: "J.R.R. Tolkien"})
	require.NoError(t, err)
	_, err = c.Add(ctx, catalog.AddRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	// act
	books, err := c.List(ctx, "tolkien")

	// assert
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, hobbitID, books[0].ID)
}

func Test_Catalog_Update_When_PatchIsEmpty_ReturnsTheBook(t *testing.T) {
	// setup
	ctx := context.Background()
	c := givenCatalog(t)
	id, err := c.Add(ctx, catalog.AddRequest{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	// act
	book, err := c.Update(ctx, id, core.BookPatch{})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
}

func Test_Catalog_When_IDIsNotPositive(t *testing.T) {
	// setup
	ctx := context.Background()
	c := givenCatalog(t)

	// act
	_, getErr := c.Get(ctx, 0)
	_, updateErr := c.Update(ctx, -1, core.BookPatch{})
	deleteErr := c.Delete(ctx, 0)

	// assert
	assert.ErrorIs(t, getErr, core.ErrNotFound)
	assert.ErrorIs(t, updateErr, core.ErrNotFound)
	assert.ErrorIs(t, deleteErr, core.ErrNotFound)
}

func Test_New_When_DefaultCopiesIsNegative(t *testing.T) {
	// act
	_, err := catalog.New(nil, catalog.WithDefaultCopies(-1))

	// assert
	assert.ErrorIs(t, err, core.ErrValidation)
}

func givenCatalog(t *testing.T, options ...catalog.Option) *catalog.Catalog {
	t.Helper()

	store, err := jsonstore.New(filepath.Join(t.TempDir(), "books.json"))
	require.NoError(t, err, "error in test setup")

	c, err := catalog.New(store, options...)
	require.NoError(t, err, "error in test setup")

	return c
}
