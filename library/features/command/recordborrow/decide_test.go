package recordborrow_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/recordborrow"
)

func Test_Decide_When_NotStrict_AlwaysBorrows(t *testing.T) {
	// arrange
	now := time.Now()
	events := core.DomainEvents{
		core.BuildBookBorrowed("alice", 7, "Dune", now.Add(-2*time.Hour)),
		core.BuildBookBorrowed("bob", 7, "Dune", now.Add(-1*time.Hour)),
	}
	command := recordborrow.BuildCommand("alice", 7, "Dune", 1, false, now)

	// act
	result := recordborrow.Decide(events, command)

	// assert
	assertBorrowedDecision(t, result, "alice", 7, "Dune")
}

func Test_Decide_When_Strict_And_CopyIsAvailable(t *testing.T) {
	// arrange
	now := time.Now()
	events := core.DomainEvents{
		core.BuildBookBorrowed("bob", 7, "Dune", now.Add(-3*time.Hour)),
		core.BuildBookBorrowed("carol", 7, "Dune", now.Add(-2*time.Hour)),
		core.BuildBookReturned("carol", 7, "Dune", now.Add(-1*time.Hour)),
	}
	command := recordborrow.BuildCommand("alice", 7, "Dune", 2, true, now)

	// act
	result := recordborrow.Decide(events, command)

	// assert
	assertBorrowedDecision(t, result, "alice", 7, "Dune")
}

func Test_Decide_When_Strict_And_AllCopiesAreBorrowed(t *testing.T) {
	// arrange
	now := time.Now()
	events := core.DomainEvents{
		core.BuildBookBorrowed("bob", 7, "Dune", now.Add(-2*time.Hour)),
		core.BuildBookBorrowed("carol", 7, "Dune", now.Add(-1*time.Hour)),
	}
	command := recordborrow.BuildCommand("alice", 7, "Dune", 2, true, now)

	// act
	result := recordborrow.Decide(events, command)

	// assert
	assert.False(t, result.HasEventToAppend())
	assert.ErrorIs(t, result.HasError(), core.ErrInsufficientCopies)
}

func Test_Decide_When_Strict_And_BookHasNoCopies(t *testing.T) {
	// arrange
	command := recordborrow.BuildCommand("alice", 7, "Dune", 0, true, time.Now())

	// act
	result := recordborrow.Decide(core.DomainEvents{}, command)

	// assert
	assert.ErrorIs(t, result.HasError(), core.ErrInsufficientCopies)
}

func Test_Decide_When_Strict_And_UserAlreadyHoldsTheBook(t *testing.T) {
	// arrange
	now := time.Now()
	events := core.DomainEvents{
		core.BuildBookBorrowed("alice", 7, "Dune", now.Add(-1*time.Hour)),
	}
	command := recordborrow.BuildCommand("alice", 7, "Dune", 2, true, now)

	// act
	result := recordborrow.Decide(events, command)

	// assert
	assert.True(t, result.IsIdempotent())
	assert.False(t, result.HasEventToAppend())
	assert.NoError(t, result.HasError())
}

func Test_Decide_When_Strict_And_UserHoldsTheOnlyCopy(t *testing.T) {
	// arrange
	now := time.Now()
	events := core.DomainEvents{
		core.BuildBookBorrowed("alice", 7, "Dune", now.Add(-1*time.Hour)),
	}
	command := recordborrow.BuildCommand("alice", 7, "Dune", 1, true, now)

	// act
	result := recordborrow.Decide(events, command)

	// assert
	assert.False(t, result.IsIdempotent())
	assert.False(t, result.HasEventToAppend())
	assert.ErrorIs(t, result.HasError(), core.ErrInsufficientCopies)
}

func Test_Decide_When_Strict_IgnoresOtherBooks(t *testing.T) {
	// arrange
	now := time.Now()
	events := core.DomainEvents{
		core.BuildBookBorrowed("bob", 8, "Emma", now.Add(-1*time.Hour)),
	}
	command := recordborrow.BuildCommand("alice", 7, "Dune", 1, true, now)

	// act
	result := recordborrow.Decide(events, command)

	// assert
	assertBorrowedDecision(t, result, "alice", 7, "Dune")
}

func Test_BuildEventFilter_MatchesTheBookStream(t *testing.T) {
	// act
	filter := recordborrow.BuildEventFilter(7)

	// assert
	require.Len(t, filter.Items(), 1)
	item := filter.Items()[0]
	assert.ElementsMatch(t, []string{core.BookBorrowedEventType, core.BookReturnedEventType}, item.EventTypes())
	require.Len(t, item.Predicates(), 1)
	assert.Equal(t, "book_id", item.Predicates()[0].Key())
	assert.Equal(t, "7", item.Predicates()[0].Val())
}

func assertBorrowedDecision(t *testing.T, result core.DecisionResult, username string, bookID int, title string) {
	t.Helper()

	require.True(t, result.HasEventToAppend())
	require.NoError(t, result.HasError())
	event, ok := result.Event.(core.BookBorrowed)
	require.True(t, ok, "expected a BookBorrowed event, got %T", result.Event)
	assert.Equal(t, username, event.Username)
	assert.Equal(t, bookID, event.BookID)
	assert.Equal(t, title, event.Title)
	assert.Equal(t, core.ActionBorrowed, event.Action)
}
