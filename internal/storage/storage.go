// Package storage keeps the physical files behind media items
package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"gallery/photo-api/internal/model"
)

// ErrNotFound is returned by Open when no file exists under the key
var ErrNotFound = errors.New("asset not found")

// AssetStore is a flat key/value file store. Delete of a missing key succeeds.
type AssetStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// URLFor returns the public URL of a stored key. Remote references are
// returned unchanged.
func URLFor(base, key string) string {
	if key == "" || model.IsRemotePath(key) {
		return key
	}

	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
