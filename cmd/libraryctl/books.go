package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-ledger-go/library"
	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

type bookFlags struct {
	title  string
	author string
	year   string
	image  string
	copies int
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "book title")
	cmd.Flags().StringVar(&f.author, "author", "", "book author")
	cmd.Flags().StringVar(&f.year, "year", "", "publication year, empty for unknown")
	cmd.Flags().StringVar(&f.image, "image", "", "cover image URL or reference, empty for none")
	cmd.Flags().IntVar(&f.copies, "copies", core.DefaultCopies, "number of copies")
}

func newBooksCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Manage the catalog",
	}

	cmd.AddCommand(
		newBooksAddCommand(a),
		newBooksListCommand(a),
		newBooksGetCommand(a),
		newBooksUpdateCommand(a),
		newBooksDeleteCommand(a),
	)

	return cmd
}

func newBooksAddCommand(a *app) *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Args:  cobra.NoArgs,
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")

	cmd.RunE = a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, _ []string) error {
		year, err := core.ParseYear(flags.year)
		if err != nil {
			return err
		}

		req := catalog.AddRequest{Title: flags.title, Author: flags.author, Year: year}

		if cmd.Flags().Changed("image") {
			req.Image = &flags.image
		}

		if cmd.Flags().Changed("copies") {
			req.Copies = &flags.copies
		}

		id, err := lib.Catalog.Add(ctx, req)
		if err != nil {
			return err
		}

		return a.print(cmd, map[string]core.BookID{"id": id}, func(w io.Writer) {
			fmt.Fprintf(w, "added book %d\n", id)
		})
	})

	return cmd
}

func newBooksListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [filter]",
		Short: "List books, optionally those whose title or author contain filter",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error {
			var filter string
			if len(args) == 1 {
				filter = args[0]
			}

			books, err := lib.Catalog.List(ctx, filter)
			if err != nil {
				return err
			}

			if books == nil {
				books = []core.Book{}
			}

			return a.print(cmd, books, func(w io.Writer) {
				for _, b := range books {
					printBook(w, b)
				}
			})
		}),
	}
}

func newBooksGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}

			book, err := lib.Catalog.Get(ctx, id)
			if err != nil {
				return err
			}

			return a.print(cmd, book, func(w io.Writer) { printBook(w, book) })
		}),
	}
}

func newBooksUpdateCommand(a *app) *cobra.Command {
	var flags bookFlags

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the given fields of a book",
		Args:  cobra.ExactArgs(1),
	}

	flags.register(cmd)

	cmd.RunE = a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error {
		id, err := parseBookID(args[0])
		if err != nil {
			return err
		}

		patch, err := flags.patch(cmd)
		if err != nil {
			return err
		}

		book, err := lib.Catalog.Update(ctx, id, patch)
		if err != nil {
			return err
		}

		return a.print(cmd, book, func(w io.Writer) { printBook(w, book) })
	})

	return cmd
}

func (f *bookFlags) patch(cmd *cobra.Command) (core.BookPatch, error) {
	var patch core.BookPatch

	changed := cmd.Flags().Changed

	if changed("title") {
		patch.Title = &f.title
	}

	if changed("author") {
		patch.Author = &f.author
	}

	if changed("year") {
		year, err := core.ParseYear(f.year)
		if err != nil {
			return core.BookPatch{}, err
		}

		patch.Year = &year
	}

	if changed("image") {
		patch.Image = &f.image
	}

	if changed("copies") {
		patch.Copies = &f.copies
	}

	return patch, nil
}

func newBooksDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a book from the catalog, its ledger entries stay",
		Args:  cobra.ExactArgs(1),
		RunE: a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}

			if err = lib.Catalog.Delete(ctx, id); err != nil {
				return err
			}

			return a.print(cmd, map[string]core.BookID{"deleted": id}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted book %d\n", id)
			})
		}),
	}
}

func printBook(w io.Writer, b core.Book) {
	year := "-"
	if b.Year > 0 {
		year = fmt.Sprint(b.Year)
	}

	fmt.Fprintf(w, "%d\t%s\t%s\t%s\tcopies=%d\n", b.ID, b.Title, b.Author, year, b.Copies)
}
