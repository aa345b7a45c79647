// Command libraryctl manages the catalog, the users and the borrow ledger from the shell.
//
// It reads the same environment (and .env file) as libraryd. With file backends it holds the
// data directory lock while a command runs, so it cannot run next to a server on the same directory.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand(defaultApp()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "libraryctl: %v\n", err)
		os.Exit(1)
	}
}
