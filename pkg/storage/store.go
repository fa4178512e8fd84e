// Package storage moves audio files between the local disk and the object
// store shared by the pipeline stages.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/mchmarny/genrelay/pkg/config"
)

// ErrNotFound is returned when the requested key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore reads and writes whole objects by key.
type ObjectStore interface {
	// Download writes the object at key to the local file dst.
	Download(ctx context.Context, key, dst string) error
	// Upload stores the local file src under key.
	Upload(ctx context.Context, src, key string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// S3ClientFunc creates the S3 client when the s3 driver is selected.
type S3ClientFunc func(ctx context.Context) (S3API, error)

// Open returns the ObjectStore selected by the storage driver.
func Open(ctx context.Context, c config.Storage, newClient S3ClientFunc) (ObjectStore, error) {
	switch c.Driver {
	case config.StorageFile:
		return NewFileStore(c.Dir)
	case config.StorageS3:
		if c.Bucket == "" {
			return nil, errors.New("storage.bucket required for s3")
		}
		if newClient == nil {
			return nil, errors.New("s3 client factory required")
		}
		api, err := newClient(ctx)
		if err != nil {
			return nil, err
		}
		return NewS3Store(api, c.Bucket), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", c.Driver)
	}
}
