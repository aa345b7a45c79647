package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const lockFileName = ".library.lock"

// ErrDataDirLocked is returned by Open while another process holds the data directory.
var ErrDataDirLocked = errors.New("data directory is locked by another process")

// dirLock is the writer lock of a data directory.
type dirLock struct {
	file *os.File
}

func acquireDirLock(dir string) (*dirLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dir, lockFileName)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err = lockFile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrDataDirLocked, path)
	}

	if err = f.Truncate(0); err == nil {
		_, err = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}

	if err != nil {
		_ = unlockFile(f)
		_ = f.Close()

		return nil, fmt.Errorf("write lock file: %w", err)
	}

	return &dirLock{file: f}, nil
}

func (l *dirLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}

	err := errors.Join(unlockFile(l.file), l.file.Close())
	l.file = nil

	return err
}
