// Package storage abstracts where profile pictures live.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned for unknown keys.
var ErrNotFound = errors.New("object not found")

// Storage defines the interface for object storage operations.
type Storage interface {
	// Upload stores an object and returns its key and a URL to fetch it.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// Delete removes an object by its key.
	Delete(ctx context.Context, key string) error

	// GetURL returns a URL the client can load the object from.
	GetURL(ctx context.Context, key string) (string, error)
}

// UploadInput holds the parameters for uploading an object.
type UploadInput struct {
	Key         string
	ContentType string
	Size        int64
	Data        io.Reader
}

// UploadResult holds the result of a successful upload.
type UploadResult struct {
	Key string
	URL string
}
