// Package objects stores rendered artifacts and uploaded files by category.
package objects

import (
	"context"
	"errors"
	"io"
	"time"
)

// Category groups objects that share a bucket and a retention policy.
type Category string

const (
	CategoryCertificate Category = "certificate"
	CategoryUpload      Category = "upload"
	CategoryAvatar      Category = "avatar"
)

var ErrUnknownCategory = errors.New("unknown object category")

// Object describes a stored object.
type Object struct {
	Key     string
	Size    int64
	Updated time.Time
}

// Store is implemented by the GCS and local backends.
type Store interface {
	Put(ctx context.Context, category Category, key string, r io.Reader, contentType string) error
	List(ctx context.Context, category Category, prefix string) ([]Object, error)
	Delete(ctx context.Context, category Category, key string) error
	URL(category Category, key string) string
}
