package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS stores objects in Google Cloud Storage, one bucket per category.
type GCS struct {
	client        *storage.Client
	buckets       map[Category]string
	publicBaseURL string
	logger        *zap.Logger
}

// NewGCS creates a GCS store. buckets maps category names to bucket names.
func NewGCS(
	ctx context.Context,
	buckets map[string]string,
	publicBaseURL string,
	logger *zap.Logger,
	opts ...option.ClientOption,
) (*GCS, error) {
	if len(buckets) == 0 {
		return nil, errors.New("no buckets configured")
	}

	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	bs := make(map[Category]string, len(buckets))
	for category, name := range buckets {
		bs[Category(category)] = name
	}

	logger.Info("object storage initialized", zap.String("driver", "gcs"), zap.Any("buckets", buckets))

	return &GCS{
		client:        client,
		buckets:       bs,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}, nil
}

func (g *GCS) bucket(category Category) (*storage.BucketHandle, error) {
	name, ok := g.buckets[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	return g.client.Bucket(name), nil
}

func (g *GCS) Put(ctx context.Context, category Category, key string, r io.Reader, contentType string) error {
	b, err := g.bucket(category)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object writer %s: %w", key, err)
	}

	return nil
}

func (g *GCS) List(ctx context.Context, category Category, prefix string) ([]Object, error) {
	b, err := g.bucket(category)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	it := b.Objects(ctx, &storage.Query{Prefix: prefix})
	var out []Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		out = append(out, Object{Key: attrs.Name, Size: attrs.Size, Updated: attrs.Updated})
	}

	return out, nil
}

func (g *GCS) Delete(ctx context.Context, category Category, key string) error {
	b, err := g.bucket(category)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := b.Object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (g *GCS) URL(category Category, key string) string {
	key = strings.TrimLeft(key, "/")
	if g.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", g.publicBaseURL, g.buckets[category], key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.buckets[category], key)
}

func (g *GCS) Close() error {
	return g.client.Close()
}
