package service

import (
	"context"
	"io"
)

// ImageStorage defines the interface for storing dish photos in a blob store.
type ImageStorage interface {
	// Upload writes the image under the given key and returns its public URL.
	Upload(ctx context.Context, key string, contentType string, body io.Reader) (string, error)

	// Delete removes the image stored under the given key.
	Delete(ctx context.Context, key string) error
}
