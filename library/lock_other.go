//go:build !unix

package library

import (
	"os"
	"sync"
)

// Without flock the lock is only held within this process.
var (
	heldMu sync.Mutex
	held   = map[string]bool{}
)

func lockFile(f *os.File) error {
	heldMu.Lock()
	defer heldMu.Unlock()

	if held[f.Name()] {
		return os.ErrExist
	}

	held[f.Name()] = true

	return nil
}

func unlockFile(f *os.File) error {
	heldMu.Lock()
	defer heldMu.Unlock()

	delete(held, f.Name())

	return nil
}
