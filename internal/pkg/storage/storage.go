package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by Get when nothing is stored under the key.
var ErrObjectNotFound = errors.New("object not found")

// Storage is the object store used for uploaded payment proofs.
// Keys are slash separated relative paths.
type Storage interface {
	Save(ctx context.Context, key string, content io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
