// Package jsonfile reads and atomically replaces the JSON documents of the file backends.
package jsonfile

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

const tempFilePattern = ".jsonfile-*.tmp"

var (
	ErrReadFailed   = errors.New("reading json file failed")
	ErrDecodeFailed = errors.New("decoding json file failed")
	ErrWriteFailed  = errors.New("writing json file failed")
)

// Read decodes the file at path into v. It returns false without touching v when the file is missing or empty.
func Read(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, errors.Join(ErrReadFailed, err)
	}

	if len(data) == 0 {
		return false, nil
	}

	if err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, v); err != nil {
		return false, errors.Join(ErrDecodeFailed, err)
	}

	return true, nil
}

// WriteAtomic encodes v and replaces the file at path via a synced temp file and a rename,
// so readers see either the old or the new document.
func WriteAtomic(path string, v any, mode fs.FileMode) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Join(ErrWriteFailed, err)
	}

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}

	tmp, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return errors.Join(ErrWriteFailed, err)
	}

	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Join(ErrWriteFailed, err)
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Join(ErrWriteFailed, err)
	}

	if err = tmp.Close(); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}

	if err = os.Chmod(tmpName, mode); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}

	return nil
}
