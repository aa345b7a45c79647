package availablecopies_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/eventstore/jsonengine"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/recordborrow"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/availablecopies"
)

func Test_QueryHandler_Handle_ReflectsStrictBorrows(t *testing.T) {
	// setup
	ctx := context.Background()
	es, err := jsonengine.NewEventStore(filepath.Join(t.TempDir(), "ledger.json"))
	require.NoError(t, err)
	borrow := recordborrow.NewCommandHandler(es)
	handler := availablecopies.NewQueryHandler(es)

	// arrange
	_, err = borrow.Handle(ctx, recordborrow.BuildCommand("alice", 7, "Dune", 2, true, time.Now()))
	require.NoError(t, err)

	// act
	result, err := handler.Handle(ctx, availablecopies.BuildQuery(7, 2))

	// assert
	require.NoError(t, err)
	assert.Equal(t, availablecopies.Availability{BookID: 7, Copies: 2, Borrowed: 1, Available: 1, Holders: []string{"alice"}}, result)
}
