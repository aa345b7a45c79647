package jsonstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog/catalogtest"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog/jsonstore"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

func Test_Store(t *testing.T) {
	catalogtest.RunStoreSuite(t, func(t *testing.T) catalog.Store {
		store, err := jsonstore.New(filepath.Join(t.TempDir(), "books.json"))
		require.NoError(t, err)

		return store
	})
}

func Test_New_When_PathIsEmpty(t *testing.T) {
	// act
	_, err := jsonstore.New("")

	// assert
	assert.ErrorIs(t, err, jsonstore.ErrEmptyFilePath)
}

func Test_Add_WritesTheBooksFileLayout(t *testing.T) {
	// setup
	path := filepath.Join(t.TempDir(), "books.json")
	store, err := jsonstore.New(path)
	require.NoError(t, err)

	// act
	_, err = store.Add(context.Background(), catalogtest.GivenNewBook(t, "Dune", "Frank Herbert", 1965, nil, 1))

	// assert
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"Dune","author":"Frank Herbert","year":1965,"image":null,"copies":1}]`, string(data))
}

func Test_Add_After_DeletingTheNewestBook_DoesNotReuseItsID(t *testing.T) {
	// setup
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "books.json")
	store, err := jsonstore.New(path)
	require.NoError(t, err)

	// arrange
	catalogtest.GivenBookWasAdded(t, store, "Dune", "Frank Herbert")
	emmaID := catalogtest.GivenBookWasAdded(t, store, "Emma", "Jane Austen")
	require.NoError(t, store.Delete(ctx, emmaID))

	// act
	id, err := store.Add(ctx, catalogtest.GivenNewBook(t, "Persuasion", "Jane Austen", 0, nil, 1))
	reopened, reopenErr := jsonstore.New(path)
	require.NoError(t, reopenErr)
	require.NoError(t, reopened.Delete(ctx, id))
	afterReopen, afterReopenErr := reopened.Add(ctx, catalogtest.GivenNewBook(t, "Sanditon", "Jane Austen", 0, nil, 1))

	// assert
	require.NoError(t, err)
	require.NoError(t, afterReopenErr)
	assert.Equal(t, emmaID+1, id)
	assert.Equal(t, id+1, afterReopen)
}

func Test_Add_When_SequenceFileIsMissing_ContinuesAfterTheHighestID(t *testing.T) {
	// setup
	path := filepath.Join(t.TempDir(), "books.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":7,"title":"Dune","author":"Frank Herbert","year":0,"image":null,"copies":1}]`), 0o600))
	store, err := jsonstore.New(path)
	require.NoError(t, err)

	// act
	id, err := store.Add(context.Background(), catalogtest.GivenNewBook(t, "Emma", "Jane Austen", 0, nil, 1))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 8, id)
	data, err := os.ReadFile(path + ".seq")
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_id":8}`, string(data))
}

func Test_List_When_FileIsCorrupt(t *testing.T) {
	// setup
	path := filepath.Join(t.TempDir(), "books.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1,`), 0o600))
	store, err := jsonstore.New(path)
	require.NoError(t, err)

	// act
	_, err = store.List(context.Background(), "")

	// assert
	assert.ErrorIs(t, err, core.ErrStorage)
}
