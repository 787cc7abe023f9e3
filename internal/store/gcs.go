package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore implements ObjectStore on Google Cloud Storage.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates an ObjectStore backed by the given storage client.
func NewGCSStore(client *storage.Client) *GCSStore {
	return &GCSStore{client: client}
}

func (s *GCSStore) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under gs://%s/%s: %w", bucket, prefix, err)
		}
		// Zero-byte folder markers end with "/" and are not documents.
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (s *GCSStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotExist
		}
		return nil, fmt.Errorf("failed to open reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
	}
	return data, nil
}

func (s *GCSStore) Write(ctx context.Context, bucket, object string, data []byte, contentType string) error {
	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize write of gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

// Move is copy-then-delete. If the source vanished between listing and the
// move, ErrObjectNotExist is returned and nothing is written.
func (s *GCSStore) Move(ctx context.Context, bucket, object, destPrefix string) (string, error) {
	bkt := s.client.Bucket(bucket)
	src := bkt.Object(object)

	if _, err := src.Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", ErrObjectNotExist
		}
		return "", fmt.Errorf("failed to stat gs://%s/%s: %w", bucket, object, err)
	}

	newName := strings.TrimSuffix(destPrefix, "/") + "/" + BaseName(object)
	if _, err := bkt.Object(newName).CopierFrom(src).Run(ctx); err != nil {
		return "", fmt.Errorf("failed to copy gs://%s/%s to %s: %w", bucket, object, newName, err)
	}
	if err := src.Delete(ctx); err != nil {
		return "", fmt.Errorf("failed to delete source gs://%s/%s after copy: %w", bucket, object, err)
	}
	return newName, nil
}

func (s *GCSStore) Exists(ctx context.Context, bucket, object string) (bool, error) {
	_, err := s.client.Bucket(bucket).Object(object).Attrs(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat gs://%s/%s: %w", bucket, object, err)
}
