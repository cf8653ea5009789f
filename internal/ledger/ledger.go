package ledger

import (
	"context"
	"time"

	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/metrics"
	"github.com/ppiankov/skilldiff/internal/model"
)

// DefaultWriteTimeout bounds a single store call
const DefaultWriteTimeout = 15 * time.Second

// Ledger is the pipeline's persistence boundary
type Ledger struct {
	bundles      BundleStore
	analytics    AnalyticsStore
	blobs        BlobStore
	writeTimeout time.Duration
}

// New creates a ledger over the given stores
func New(bundles BundleStore, analytics AnalyticsStore, blobs BlobStore, writeTimeout time.Duration) *Ledger {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Ledger{
		bundles:      bundles,
		analytics:    analytics,
		blobs:        blobs,
		writeTimeout: writeTimeout,
	}
}

// NewMemory creates a ledger with every store in process
func NewMemory() (*Ledger, *MemoryStore, *MemoryBlobStore) {
	store := NewMemoryStore()
	blobs := NewMemoryBlobStore()
	return New(store, store, blobs, 0), store, blobs
}

// RecordAnalytics writes an analytics row. Failures are logged and dropped.
func (l *Ledger) RecordAnalytics(ctx context.Context, rec model.AnalyticsRecord) {
	ctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	if err := l.analytics.PutAnalytics(ctx, rec); err != nil {
		metrics.StageFailures.WithLabelValues("analytics").Inc()
		logging.From(ctx).Warn("analytics write failed",
			"error", &model.PersistenceError{Op: "analytics", Key: rec.ID, Err: err})
	}
}

// SaveBundle writes the bundle under its submission id, overwriting a previous one
func (l *Ledger) SaveBundle(ctx context.Context, bundle *model.SubmissionResultBundle) error {
	ctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	if err := l.bundles.PutBundle(ctx, bundle); err != nil {
		return &model.PersistenceError{Op: "bundle", Key: bundle.ID, Err: err}
	}
	return nil
}

// SaveRawBlob stores the uploaded document under the submission id
func (l *Ledger) SaveRawBlob(ctx context.Context, id string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	if err := l.blobs.PutBlob(ctx, id, data, contentType); err != nil {
		return &model.PersistenceError{Op: "blob", Key: id, Err: err}
	}
	return nil
}

// Bundle reads a stored bundle. Returns ErrNotFound when none exists.
func (l *Ledger) Bundle(ctx context.Context, id string) (*model.SubmissionResultBundle, error) {
	return l.bundles.GetBundle(ctx, id)
}

// RawBlob reads the stored document for id
func (l *Ledger) RawBlob(ctx context.Context, id string) ([]byte, string, error) {
	return l.blobs.GetBlob(ctx, id)
}
