// Package imagestore keeps book cover images in a local directory or an S3 bucket.
// Both return a reference (an object key) that is stored in core.Book.Image.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

const keyPrefix = "covers/"

var (
	// ErrUnsupportedImageType is returned by Put for content types other than common web image formats.
	ErrUnsupportedImageType = errors.New("unsupported image type")

	// ErrInvalidReference is returned for references that were not produced by a Store.
	ErrInvalidReference = errors.New("invalid image reference")
)

var extensionsByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store persists cover images.
type Store interface {
	Put(ctx context.Context, contentType string, body io.Reader) (string, error)
	Get(ctx context.Context, ref string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, ref string) error
}

func newKey(contentType string) (string, error) {
	ext, ok := extensionsByContentType[normalizeContentType(contentType)]
	if !ok {
		return "", errors.Join(core.ErrValidation, fmt.Errorf("%w: %q", ErrUnsupportedImageType, contentType))
	}

	return keyPrefix + uuid.New().String() + ext, nil
}

func validateKey(ref string) error {
	clean := path.Clean(ref)
	if clean != ref || !strings.HasPrefix(ref, keyPrefix) || strings.Contains(ref, "..") || filepath.IsAbs(ref) {
		return errors.Join(core.ErrValidation, fmt.Errorf("%w: %q", ErrInvalidReference, ref))
	}

	return nil
}

func contentTypeOf(ref string) string {
	ext := path.Ext(ref)
	for contentType, e := range extensionsByContentType {
		if e == ext {
			return contentType
		}
	}

	return "application/octet-stream"
}

func normalizeContentType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}
