package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ppiankov/skilldiff/internal/model"
)

// MemoryStore keeps bundles and analytics rows in process
type MemoryStore struct {
	mu        sync.RWMutex
	bundles   map[string][]byte
	analytics map[string]model.AnalyticsRecord
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bundles:   make(map[string][]byte),
		analytics: make(map[string]model.AnalyticsRecord),
	}
}

// PutBundle stores a copy of bundle, replacing any bundle with the same id
func (s *MemoryStore) PutBundle(ctx context.Context, bundle *model.SubmissionResultBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bundles[bundle.ID] = data
	return nil
}

// GetBundle returns a copy of the stored bundle
func (s *MemoryStore) GetBundle(ctx context.Context, id string) (*model.SubmissionResultBundle, error) {
	s.mu.RLock()
	data, ok := s.bundles[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}

	var bundle model.SubmissionResultBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("unmarshal bundle: %w", err)
	}
	return &bundle, nil
}

// PutAnalytics stores rec, replacing any row with the same id
func (s *MemoryStore) PutAnalytics(ctx context.Context, rec model.AnalyticsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analytics[rec.ID] = rec
	return nil
}

// Analytics returns the stored row for id
func (s *MemoryStore) Analytics(id string) (model.AnalyticsRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.analytics[id]
	return rec, ok
}

// BundleCount returns how many bundles are stored
func (s *MemoryStore) BundleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bundles)
}

type memoryBlob struct {
	data        []byte
	contentType string
}

// MemoryBlobStore keeps documents in process
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

// NewMemoryBlobStore creates an empty blob store
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string]memoryBlob)}
}

// PutBlob stores a copy of data
func (s *MemoryBlobStore) PutBlob(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = memoryBlob{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// GetBlob returns a copy of the stored document and its content type
func (s *MemoryBlobStore) GetBlob(ctx context.Context, key string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return append([]byte(nil), b.data...), b.contentType, nil
}
