package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-ledger-go/library"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/currentlyborrowed"
)

func newBorrowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow USERNAME BOOK_ID",
		Short: "Record that a user borrowed a book",
		Args:  cobra.ExactArgs(2),
		RunE: a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error {
			id, err := parseBookID(args[1])
			if err != nil {
				return err
			}

			if err = lib.Ledger.RecordBorrow(ctx, args[0], id); err != nil {
				return err
			}

			return a.print(cmd, map[string]any{"username": args[0], "book_id": id, "action": core.ActionBorrowed}, func(w io.Writer) {
				fmt.Fprintf(w, "%s borrowed book %d\n", args[0], id)
			})
		}),
	}
}

func newReturnCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return USERNAME BOOK_ID",
		Short: "Record that a user returned a book",
		Args:  cobra.ExactArgs(2),
		RunE: a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error {
			id, err := parseBookID(args[1])
			if err != nil {
				return err
			}

			if err = lib.Ledger.RecordReturn(ctx, args[0], id); err != nil {
				return err
			}

			return a.print(cmd, map[string]any{"username": args[0], "book_id": id, "action": core.ActionReturned}, func(w io.Writer) {
				fmt.Fprintf(w, "%s returned book %d\n", args[0], id)
			})
		}),
	}
}

func newBorrowedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrowed USERNAME",
		Short: "List the books a user currently holds",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error {
			books, err := lib.Ledger.CurrentlyBorrowed(ctx, args[0])
			if err != nil {
				return err
			}

			if books == nil {
				books = []currentlyborrowed.BorrowedBook{}
			}

			return a.print(cmd, books, func(w io.Writer) {
				for _, b := range books {
					fmt.Fprintf(w, "%d\t%s\tsince %s\n", b.BookID, b.Title, b.BorrowedAt.Format(time.RFC3339))
				}
			})
		}),
	}
}

func newHistoryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history [USERNAME]",
		Short: "Show the ledger of one user, or of everyone",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error {
			var username string
			if len(args) == 1 {
				username = args[0]
			}

			entries, err := lib.Ledger.History(ctx, username)
			if err != nil {
				return err
			}

			if entries == nil {
				entries = []core.BorrowEvent{}
			}

			return a.print(cmd, entries, func(w io.Writer) {
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", e.Datetime.Format(time.RFC3339), e.Username, e.Action, e.BookID, e.Title)
				}
			})
		}),
	}
}

func newAvailabilityCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "availability BOOK_ID",
		Short: "Show how many copies of a book are not borrowed",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}

			result, err := lib.Ledger.CopiesAvailable(ctx, id)
			if err != nil {
				return err
			}

			return a.print(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "book %d: %d of %d available\n", result.BookID, result.Available, result.Copies)
			})
		}),
	}
}
