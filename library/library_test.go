package library_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AntonStoeckl/library-ledger-go/library"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shell/config"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
	"github.com/AntonStoeckl/library-ledger-go/testutil/logspy"
)

func Test_Open_WithFileBackends_WiresEverything(t *testing.T) {
	for _, backend := range []string{config.BackendJSON, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			// setup
			ctx := context.Background()
			cfg := givenConfig(t, backend)
			lib, err := library.Open(ctx, cfg, nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = lib.Close(ctx) })

			// arrange
			id, err := lib.Catalog.Add(ctx, catalog.AddRequest{Title: "Dune", Author: "Frank Herbert"})
			require.NoError(t, err)
			_, err = lib.Users.Register(ctx, users.Registration{Username: "alice", Password: "secret"})
			require.NoError(t, err)

			// act
			borrowErr := lib.Ledger.RecordBorrow(ctx, "alice", id)

			// assert
			require.NoError(t, borrowErr)
			books, err := lib.Ledger.CurrentlyBorrowed(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, books, 1)
			assert.Equal(t, "Dune", books[0].Title)
			_, err = lib.Users.Authenticate(ctx, "alice", "secret")
			assert.NoError(t, err)
			assert.NotNil(t, lib.Images)
		})
	}
}

func Test_Open_When_DataDirIsLocked(t *testing.T) {
	// setup
	ctx := context.Background()
	cfg := givenConfig(t, config.BackendJSON)

	// arrange
	first, err := library.Open(ctx, cfg, nil)
	require.NoError(t, err)

	// act
	_, lockedErr := library.Open(ctx, cfg, nil)
	require.NoError(t, first.Close(ctx))
	second, reopenErr := library.Open(ctx, cfg, nil)

	// assert
	assert.ErrorIs(t, lockedErr, library.ErrDataDirLocked)
	require.NoError(t, reopenErr)
	assert.NoError(t, second.Close(ctx))
}

func Test_Open_KeepsDataAcrossRestarts(t *testing.T) {
	// setup
	ctx := context.Background()
	cfg := givenConfig(t, config.BackendJSON)
	cfg.StrictAvailability = true

	// arrange
	first, err := library.Open(ctx, cfg, nil)
	require.NoError(t, err)
	copies := 1
	id, err := first.Catalog.Add(ctx, catalog.AddRequest{Title: "Emma", Author: "Jane Austen", Copies: &copies})
	require.NoError(t, err)
	require.NoError(t, first.Ledger.RecordBorrow(ctx, "alice", id))
	require.NoError(t, first.Close(ctx))

	// act
	second, err := library.Open(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close(ctx) })
	borrowErr := second.Ledger.RecordBorrow(ctx, "bob", id)

	// assert
	assert.ErrorIs(t, borrowErr, core.ErrInsufficientCopies)
}

func Test_Open_When_ConfigIsInvalid(t *testing.T) {
	// setup
	cfg := givenConfig(t, "csv")

	// act
	lib, err := library.Open(context.Background(), cfg, nil)

	// assert
	assert.Nil(t, lib)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func Test_Close_IsLogged_And_Idempotent(t *testing.T) {
	// setup
	ctx := context.Background()
	logger, spy := logspy.NewLogger()
	lib, err := library.Open(ctx, givenConfig(t, config.BackendSQLite), logger)
	require.NoError(t, err)

	// act
	firstErr := lib.Close(ctx)
	secondErr := lib.Close(ctx)

	// assert
	assert.NoError(t, firstErr)
	assert.NoError(t, secondErr)
	assert.Positive(t, spy.RecordCount())
}

func givenConfig(t *testing.T, catalogBackend string) config.Config {
	t.Helper()

	dir := t.TempDir()

	return config.Config{
		DataDir:        dir,
		BooksFile:      filepath.Join(dir, "books.json"),
		UsersFile:      filepath.Join(dir, "users.json"),
		LedgerFile:     filepath.Join(dir, "ledger.json"),
		SQLitePath:     filepath.Join(dir, "library.db"),
		CatalogBackend: catalogBackend,
		LedgerBackend:  config.BackendJSON,
		DefaultCopies:  1,
		BcryptCost:     bcrypt.MinCost,
		ImageBackend:   config.BackendLocal,
		ImageDir:       filepath.Join(dir, "images"),
		MaxUploadMB:    1,
	}
}
