// Package userstest holds the behavior every users.Store must show, run by each backend's tests.
package userstest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
)

// NewStoreFunc returns an empty store.
type NewStoreFunc func(t *testing.T) users.Store

// RunStoreSuite runs the shared store tests as subtests of t.
func RunStoreSuite(t *testing.T, newStore NewStoreFunc) {
	t.Run("CreateUser_Then_GetUser", func(t *testing.T) {
		// setup
		ctx := context.Background()
		store := newStore(t)

		// act
		created, err := store.CreateUser(ctx, core.User{Username: "alice", Password: "hash", Role: core.RoleReader, Email: "alice@example.org"})

		// assert
		require.NoError(t, err)
		assert.Positive(t, created.ID)
		found, err := store.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, created, found)
	})

	t.Run("CreateUser_When_UsernameIsTaken", func(t *testing.T) {
		// setup
		ctx := context.Background()
		store := newStore(t)
		_, err := store.CreateUser(ctx, core.User{Username: "alice", Password: "hash", Role: core.RoleReader})
		require.NoError(t, err)

		// act
		_, err = store.CreateUser(ctx, core.User{Username: "alice", Password: "other", Role: core.RoleAdmin})

		// assert
		assert.ErrorIs(t, err, core.ErrDuplicate)
	})

	t.Run("Usernames_AreCaseSensitive", func(t *testing.T) {
		// setup
		ctx := context.Background()
		store := newStore(t)
		_, err := store.CreateUser(ctx, core.User{Username: "alice", Password: "hash", Role: core.RoleReader})
		require.NoError(t, err)

		// act
		_, createErr := store.CreateUser(ctx, core.User{Username: "Alice", Password: "hash", Role: core.RoleReader})
		_, getErr := store.GetUser(ctx, "ALICE")

		// assert
		assert.NoError(t, createErr)
		assert.ErrorIs(t, getErr, core.ErrNotFound)
	})

	t.Run("ListUsers_InRegistrationOrder", func(t *testing.T) {
		// setup
		ctx := context.Background()
		store := newStore(t)
		for _, name := range []string{"carol", "alice", "bob"} {
			_, err := store.CreateUser(ctx, core.User{Username: name, Password: "hash", Role: core.RoleReader})
			require.NoError(t, err)
		}

		// act
		list, err := store.ListUsers(ctx)

		// assert
		require.NoError(t, err)
		names := make([]string, 0, len(list))
		for _, u := range list {
			names = append(names, u.Username)
		}
		assert.Equal(t, []string{"carol", "alice", "bob"}, names)
	})
}
