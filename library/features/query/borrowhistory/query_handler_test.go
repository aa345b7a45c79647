package borrowhistory_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/eventstore/jsonengine"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/recordborrow"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/recordreturn"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/borrowhistory"
)

func Test_QueryHandler_Handle_ReturnsEntriesOfOneOrAllUsers(t *testing.T) {
	// setup
	ctx := context.Background()
	es, err := jsonengine.NewEventStore(filepath.Join(t.TempDir(), "ledger.json"))
	require.NoError(t, err)
	borrow := recordborrow.NewCommandHandler(es)
	giveBack := recordreturn.NewCommandHandler(es)
	handler := borrowhistory.NewQueryHandler(es)
	fakeClock := time.Unix(0, 0).UTC()

	// arrange
	_, err = borrow.Handle(ctx, recordborrow.BuildCommand("alice", 1, "Dune", 1, false, fakeClock))
	require.NoError(t, err)
	_, err = borrow.Handle(ctx, recordborrow.BuildCommand("bob", 2, "Emma", 1, false, fakeClock.Add(time.Minute)))
	require.NoError(t, err)
	_, err = giveBack.Handle(ctx, recordreturn.BuildCommand("alice", 1, "Dune", fakeClock.Add(2*time.Minute)))
	require.NoError(t, err)

	// act
	all, allErr := handler.Handle(ctx, borrowhistory.BuildQuery(""))
	alice, aliceErr := handler.Handle(ctx, borrowhistory.BuildQuery("alice"))

	// assert
	require.NoError(t, allErr)
	require.NoError(t, aliceErr)
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, []core.BorrowEvent{
		{Username: "alice", BookID: 1, Title: "Dune", Action: core.ActionBorrowed, Datetime: fakeClock},
		{Username: "alice", BookID: 1, Title: "Dune", Action: core.ActionReturned, Datetime: fakeClock.Add(2 * time.Minute)},
	}, alice.Entries)
}
