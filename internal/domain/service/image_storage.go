package service

import (
	"context"
	"io"
)

// ImageStorage abstracts the blob store holding avatar and place images.
// Keys are opaque references persisted on the owning entity; path layout
// is an infrastructure concern.
type ImageStorage interface {
	// Save writes the image bytes under the given key, replacing any
	// previous blob at that key.
	Save(ctx context.Context, key string, r io.Reader) error

	// Remove deletes the blob stored under key. Removing a key that does
	// not exist is not an error.
	Remove(ctx context.Context, key string) error

	// URL returns a client-resolvable URL for the blob under key.
	URL(ctx context.Context, key string) (string, error)
}
