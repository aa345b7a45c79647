package currentlyborrowed_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/eventstore/jsonengine"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/recordborrow"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/recordreturn"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/currentlyborrowed"
	"github.com/AntonStoeckl/library-ledger-go/testutil/logspy"
)

func Test_QueryHandler_Handle_ReturnsTheBooksStillHeld(t *testing.T) {
	// setup
	ctx := context.Background()
	logger, spy := logspy.NewLogger()
	es := givenEventStore(t)
	borrow := recordborrow.NewCommandHandler(es)
	giveBack := recordreturn.NewCommandHandler(es)
	handler := currentlyborrowed.NewQueryHandler(es, currentlyborrowed.WithLogging(logger))
	fakeClock := time.Unix(0, 0).UTC()

	// arrange
	_, err := borrow.Handle(ctx, recordborrow.BuildCommand("alice", 1, "Dune", 1, false, fakeClock))
	require.NoError(t, err)
	_, err = borrow.Handle(ctx, recordborrow.BuildCommand("alice", 2, "Emma", 1, false, fakeClock.Add(time.Minute)))
	require.NoError(t, err)
	_, err = borrow.Handle(ctx, recordborrow.BuildCommand("bob", 3, "Ulysses", 1, false, fakeClock.Add(2*time.Minute)))
	require.NoError(t, err)
	_, err = giveBack.Handle(ctx, recordreturn.BuildCommand("alice", 1, "Dune", fakeClock.Add(3*time.Minute)))
	require.NoError(t, err)

	// act
	result, err := handler.Handle(ctx, currentlyborrowed.BuildQuery("alice"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, []currentlyborrowed.BorrowedBook{
		{BookID: 2, Title: "Emma", BorrowedAt: fakeClock.Add(time.Minute)},
	}, result.Books)
	assert.True(t, spy.HasLogWithAttr(slog.LevelDebug, "query handled", "query_type"))
}

func Test_QueryHandler_Handle_When_LedgerIsCorrupt(t *testing.T) {
	// setup
	logger, spy := logspy.NewLogger()
	es := givenEventStore(t)
	require.NoError(t, os.WriteFile(es.FilePath(), []byte("{not json"), 0o600))
	handler := currentlyborrowed.NewQueryHandler(es, currentlyborrowed.WithLogging(logger))

	// act
	_, err := handler.Handle(context.Background(), currentlyborrowed.BuildQuery("alice"))

	// assert
	assert.Error(t, err)
	assert.True(t, spy.HasLogWithAttr(slog.LevelError, "query failed", "error"))
}

func givenEventStore(t *testing.T) jsonengine.EventStore {
	t.Helper()

	es, err := jsonengine.NewEventStore(filepath.Join(t.TempDir(), "ledger.json"))
	require.NoError(t, err, "error in test setup")

	return es
}
