// Package catalogtest holds the behavior every catalog.Store must show, run by each backend's tests.
package catalogtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

// NewStoreFunc returns an empty store.
type NewStoreFunc func(t *testing.T) catalog.Store

// RunStoreSuite runs the shared store tests as subtests of t.
func RunStoreSuite(t *testing.T, newStore NewStoreFunc) {
	t.Run("Add_Then_List_ContainsTheBookOnce", func(t *testing.T) {
		// setup
		ctx := context.Background()
		store := newStore(t)
		image := "covers/hobbit.jpg"

		// act
		id, err := store.Add(ctx, GivenNewBook(t, "The Hobbit", "J.R.R. Tolkien", 1937, &image, 2))

		// assert
		require.NoError(t, err)
		assert.Positive(t, id)
		books, err := store.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, core.Book{ID: id, Title: "The Hobbit", Author: "J.R.R. Tolkien", Year: 1937, Image: &image, Copies: 2}, books[0])
	})

	t.Run("List_KeepsInsertionOrder_And_Filters", func(t *testing.T) {
		// setup
		ctx := context.Background()
		store := newStore(t)

		// arrange
		hobbitID := GivenBookWasAdded(t, store, "The Hobbit", "J.R.R. Tolkien")
		duneID := GivenBookWasAdded(t, store, "Dune", "Frank Herbert")
		silmarillionID := GivenBookWasAdded(t, store, "The Silmarillion", "J.R.R. TOLKIEN")

		// act
		all, allErr := store.List(ctx, "")
		filtered, filteredErr := store.List(ctx, "tolkien")
		none, noneErr := store.List(ctx, "pratchett")

		// assert
		require.NoError(t, allErr)
		require.NoError(t, filteredErr)
		require.NoError(t, noneErr)
		assert.Equal(t, []core.BookID{hobbitID, duneID, silmarillionID}, ids(all))
		assert.Equal(t, []core.BookID{hobbitID, silmarillionID}, ids(filtered))
		assert.Empty(t, none)
	})

	t.Run("Get_When_BookIsUnknown", func(t *testing.T) {
		// setup
		store := newStore(t)

		// act
		_, err := store.Get(context.Background(), 4711)

		// assert
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Update_ChangesOnlyPatchedFields", func(t *testing.T) {
		// setup
		ctx := context.Background()
		store := newStore(t)

		// arrange
		id := GivenBookWasAdded(t, store, "Dune", "Frank Herbert")
		title := "Dune Messiah"
		year := 1969

		// act
		updated, err := store.Update(ctx, id, core.BookPatch{Title: &title, Year: &year})

		// assert
		require.NoError(t, err)
		assert.Equal(t, "Dune Messiah", updated.Title)
		book, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, core.Book{ID: id, Title: "Dune Messiah", Author: "Frank Herbert", Year: 1969, Copies: 1}, book)
	})

	t.Run("Update_When_PatchIsInvalid_NothingChanges", func(t *testing.T) {
		// setup
		ctx := context.Background()
		store := newStore(t)

		// arrange
		id := GivenBookWasAdded(t, store, "Dune", "Frank Herbert")
		empty := ""

		// act
		_, err := store.Update(ctx, id, core.BookPatch{Title: &empty})

		// assert
		assert.ErrorIs(t, err, core.ErrValidation)
		book, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Dune", book.Title)
	})

	t.Run("Update_When_BookIsUnknown", func(t *testing.T) {
		// setup
		store := newStore(t)
		title := "Dune"

		// act
		_, err := store.Update(context.Background(), 4711, core.BookPatch{Title: &title})

		// assert
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("Delete_Twice_SecondCallFails", func(t *testing.T) {
		// setup
		ctx := context.Background()
		store := newStore(t)

		// arrange
		id := GivenBookWasAdded(t, store, "Dune", "Frank Herbert")
		otherID := GivenBookWasAdded(t, store, "Emma", "Jane Austen")

		// act
		firstErr := store.Delete(ctx, id)
		secondErr := store.Delete(ctx, id)

		// assert
		assert.NoError(t, firstErr)
		assert.ErrorIs(t, secondErr, core.ErrNotFound)
		books, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []core.BookID{otherID}, ids(books))
	})
}

// GivenNewBook builds a valid core.NewBook or fails the test.
func GivenNewBook(t *testing.T, title, author string, year int, image *string, copies int) core.NewBook {
	t.Helper()

	nb, err := core.BuildNewBook(title, author, year, image, copies)
	require.NoError(t, err, "error in arranging test data")

	return nb
}

// GivenBookWasAdded adds a book with one copy and no year or image.
func GivenBookWasAdded(t *testing.T, store catalog.Store, title, author string) core.BookID {
	t.Helper()

	id, err := store.Add(context.Background(), GivenNewBook(t, title, author, 0, nil, 1))
	require.NoError(t, err, "error in arranging test data")

	return id
}

func ids(books []core.Book) []core.BookID {
	result := make([]core.BookID, 0, len(books))
	for _, b := range books {
		result = append(result, b.ID)
	}

	return result
}
