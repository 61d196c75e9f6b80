package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by BlobStore.Get when no blob exists for a key.
var ErrNotFound = errors.New("blob not found")

// BlobStore persists named opaque blobs. Each Put replaces the whole
// blob; there are no partial writes.
type BlobStore interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores data under key, replacing any previous blob.
	Put(ctx context.Context, key string, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}
