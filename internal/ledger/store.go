// Package ledger persists verification results, analytics rows and uploaded documents.
package ledger

import (
	"context"
	"errors"

	"github.com/ppiankov/skilldiff/internal/model"
)

// ErrNotFound is returned when a key has no stored value
var ErrNotFound = errors.New("not found")

// BundleStore persists result bundles keyed by submission id
type BundleStore interface {
	PutBundle(ctx context.Context, bundle *model.SubmissionResultBundle) error
	GetBundle(ctx context.Context, id string) (*model.SubmissionResultBundle, error)
}

// AnalyticsStore persists analytics rows keyed by submission id
type AnalyticsStore interface {
	PutAnalytics(ctx context.Context, rec model.AnalyticsRecord) error
}

// BlobStore persists raw uploaded documents
type BlobStore interface {
	PutBlob(ctx context.Context, key string, data []byte, contentType string) error
	GetBlob(ctx context.Context, key string) ([]byte, string, error)
}
