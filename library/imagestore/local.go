package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

// Local stores images below a directory.
type Local struct {
	dir string
}

// NewLocal creates dir if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(filepath.Join(dir, keyPrefix), 0o755); err != nil {
		return nil, errors.Join(core.ErrStorage, fmt.Errorf("create image dir: %w", err))
	}

	return &Local{dir: dir}, nil
}

func (l *Local) Put(ctx context.Context, contentType string, body io.Reader) (string, error) {
	key, err := newKey(contentType)
	if err != nil {
		return "", err
	}

	if err = ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.OpenFile(l.pathOf(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Join(core.ErrStorage, err)
	}

	if _, err = io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())

		return "", errors.Join(core.ErrStorage, err)
	}

	if err = f.Close(); err != nil {
		return "", errors.Join(core.ErrStorage, err)
	}

	return key, nil
}

func (l *Local) Get(_ context.Context, ref string) (io.ReadCloser, string, error) {
	if err := validateKey(ref); err != nil {
		return nil, "", err
	}

	f, err := os.Open(l.pathOf(ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("%w: image %q", core.ErrNotFound, ref)
	}

	if err != nil {
		return nil, "", errors.Join(core.ErrStorage, err)
	}

	return f, contentTypeOf(ref), nil
}

func (l *Local) Delete(_ context.Context, ref string) error {
	if err := validateKey(ref); err != nil {
		return err
	}

	if err := os.Remove(l.pathOf(ref)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(core.ErrStorage, err)
	}

	return nil
}

func (l *Local) pathOf(key string) string {
	return filepath.Join(l.dir, filepath.FromSlash(key))
}
