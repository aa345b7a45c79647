package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-ledger-go/library"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
)

type userView struct {
	ID       int       `json:"id"`
	Username string    `json:"username"`
	Role     core.Role `json:"role"`
	Email    string    `json:"email"`
}

func userViewFrom(u core.User) userView {
	return userView{ID: u.ID, Username: u.Username, Role: u.Role, Email: u.Email}
}

func newUsersCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	cmd.AddCommand(newUsersRegisterCommand(a), newUsersListCommand(a))

	return cmd
}

func newUsersRegisterCommand(a *app) *cobra.Command {
	var email, role string

	cmd := &cobra.Command{
		Use:   "register USERNAME",
		Short: "Register a user, the password is read from the terminal or stdin",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", string(core.RoleReader), "reader, librarian or admin")

	cmd.RunE = a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error {
		password, err := readPassword(cmd, fmt.Sprintf("Password for %s: ", args[0]))
		if err != nil {
			return err
		}

		user, err := lib.Users.Register(ctx, users.Registration{
			Username: args[0],
			Password: password,
			Email:    email,
			Role:     role,
		})
		if err != nil {
			return err
		}

		return a.print(cmd, userViewFrom(user), func(w io.Writer) {
			fmt.Fprintf(w, "registered %s (%s) with id %d\n", user.Username, user.Role, user.ID)
		})
	})

	return cmd
}

func newUsersListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: a.withLibrary(func(ctx context.Context, cmd *cobra.Command, lib *library.Library, _ []string) error {
			list, err := lib.Users.List(ctx)
			if err != nil {
				return err
			}

			views := make([]userView, 0, len(list))
			for _, u := range list {
				views = append(views, userViewFrom(u))
			}

			return a.print(cmd, views, func(w io.Writer) {
				for _, v := range views {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", v.ID, v.Username, v.Role, v.Email)
				}
			})
		}),
	}
}
