package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskBlobStore writes documents under a local directory,
// with the content type in a sidecar file
type DiskBlobStore struct {
	dir string
}

// NewDiskBlobStore creates a disk-backed blob store
func NewDiskBlobStore(dir string) (*DiskBlobStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &DiskBlobStore{dir: dir}, nil
}

type blobMeta struct {
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

// PutBlob writes data atomically, replacing an existing blob
func (s *DiskBlobStore) PutBlob(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	meta, err := json.Marshal(blobMeta{ContentType: contentType, Size: len(data)})
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	if err := writeAtomic(s.dir, path, data); err != nil {
		return err
	}
	return writeAtomic(s.dir, path+".meta", meta)
}

// GetBlob reads a stored document
func (s *DiskBlobStore) GetBlob(ctx context.Context, key string) ([]byte, string, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("read blob: %w", err)
	}

	var meta blobMeta
	if raw, err := os.ReadFile(path + ".meta"); err == nil {
		_ = json.Unmarshal(raw, &meta)
	}
	return data, meta.ContentType, nil
}

func (s *DiskBlobStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "blob-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename blob: %w", err)
	}
	return nil
}
