package ledger

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/skilldiff/internal/model"
)

func setupFirestore(t *testing.T) *FirestoreStore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	s, err := NewFirestoreStore(context.Background(), projectID, databaseID, "skilldiff_test")
	if err != nil {
		t.Fatalf("NewFirestoreStore failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFirestoreStore_Bundle(t *testing.T) {
	s := setupFirestore(t)
	ctx := context.Background()

	bundle := testBundle()
	bundle.ID = uuid.NewString()
	bundle.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if err := s.PutBundle(ctx, bundle); err != nil {
		t.Fatalf("PutBundle failed: %v", err)
	}
	got, err := s.GetBundle(ctx, bundle.ID)
	if err != nil {
		t.Fatalf("GetBundle failed: %v", err)
	}
	if got.Email != bundle.Email || len(got.Records) != len(bundle.Records) {
		t.Errorf("unexpected bundle %+v", got)
	}

	if _, err := s.GetBundle(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	rec := model.AnalyticsRecord{ID: bundle.ID, Email: bundle.Email, CreatedAt: time.Now()}
	if err := s.PutAnalytics(ctx, rec); err != nil {
		t.Errorf("PutAnalytics failed: %v", err)
	}
}

func TestGCSBlobStore(t *testing.T) {
	bucket := os.Getenv("TEST_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_GCS_BUCKET is not set")
	}
	ctx := context.Background()

	s, err := NewGCSBlobStore(ctx, bucket)
	if err != nil {
		t.Fatalf("NewGCSBlobStore failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	key := "skilldiff-test-" + uuid.NewString()
	if err := s.PutBlob(ctx, key, []byte("resume"), "text/plain"); err != nil {
		t.Fatalf("PutBlob failed: %v", err)
	}
	data, ct, err := s.GetBlob(ctx, key)
	if err != nil {
		t.Fatalf("GetBlob failed: %v", err)
	}
	if string(data) != "resume" || ct != "text/plain" {
		t.Errorf("unexpected blob %q (%s)", data, ct)
	}

	if _, _, err := s.GetBlob(ctx, key+"-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
