package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AntonStoeckl/library-ledger-go/library"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/shell/config"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// app holds what the commands need from the process, so tests can replace it.
type app struct {
	loadConfig func() (config.Config, error)
	output     string
}

func defaultApp() *app {
	return &app{loadConfig: config.Load, output: outputText}
}

type libraryFunc func(ctx context.Context, cmd *cobra.Command, lib *library.Library, args []string) error

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "libraryctl",
		Short:         "Manage the library catalog, users and borrow ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if a.output != outputText && a.output != outputJSON {
				return fmt.Errorf("--output must be %s or %s", outputText, outputJSON)
			}

			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.output, "output", "o", outputText, "output format: text or json")

	root.AddCommand(
		newBooksCommand(a),
		newUsersCommand(a),
		newBorrowCommand(a),
		newReturnCommand(a),
		newBorrowedCommand(a),
		newHistoryCommand(a),
		newAvailabilityCommand(a),
	)

	return root
}

// withLibrary opens the library for the duration of fn.
func (a *app) withLibrary(fn libraryFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := a.loadConfig()
		if err != nil {
			return err
		}

		logger, err := config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		lib, err := library.Open(ctx, cfg, logger)
		if err != nil {
			return err
		}

		defer func() {
			if closeErr := lib.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
				err = closeErr
			}
		}()

		return fn(ctx, cmd, lib, args)
	}
}

// print writes v as JSON, or calls text for the text output.
func (a *app) print(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	if a.output == outputJSON {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	}

	text(cmd.OutOrStdout())

	return nil
}

func parseBookID(raw string) (core.BookID, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: book id %q", core.ErrValidation, raw)
	}

	return id, nil
}

// readPassword prompts without echo on a terminal and reads one line from stdin otherwise.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)

		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}

		return string(password), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}
