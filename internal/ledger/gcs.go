package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSBlobStore stores documents in a Cloud Storage bucket
type GCSBlobStore struct {
	bucket string
	client *storage.Client
}

// NewGCSBlobStore creates a Cloud Storage client for bucket
func NewGCSBlobStore(ctx context.Context, bucket string) (*GCSBlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("blob bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &GCSBlobStore{bucket: bucket, client: client}, nil
}

// PutBlob uploads data, replacing any object with the same key
func (s *GCSBlobStore) PutBlob(ctx context.Context, key string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object %s: %w", key, err)
	}
	return nil
}

// GetBlob downloads an object
func (s *GCSBlobStore) GetBlob(ctx context.Context, key string) ([]byte, string, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("read object %s: %w", key, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read object %s: %w", key, err)
	}
	return data, r.Attrs.ContentType, nil
}

// Close releases the client
func (s *GCSBlobStore) Close() error {
	return s.client.Close()
}
