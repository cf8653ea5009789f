package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/skilldiff/internal/model"
)

// MockStore fails every call with Err
type MockStore struct {
	Err error
}

func (m *MockStore) PutBundle(ctx context.Context, b *model.SubmissionResultBundle) error {
	return m.Err
}

func (m *MockStore) GetBundle(ctx context.Context, id string) (*model.SubmissionResultBundle, error) {
	return nil, m.Err
}

func (m *MockStore) PutAnalytics(ctx context.Context, rec model.AnalyticsRecord) error {
	return m.Err
}

func (m *MockStore) PutBlob(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Err
}

func (m *MockStore) GetBlob(ctx context.Context, key string) ([]byte, string, error) {
	return nil, "", m.Err
}

func testBundle() *model.SubmissionResultBundle {
	return &model.SubmissionResultBundle{
		ID:       "sub-1",
		Email:    "ada@example.com",
		RawText:  "Ada Park, MIT",
		FullName: "Ada Park",
		School:   "MIT",
		Records: []model.VerificationRecord{
			{
				Claim:    model.Claim{Text: "Did Ada Park from MIT win HackMIT?", SearchQuery: "Ada Park HackMIT"},
				Evidence: model.Evidence{Query: "Ada Park HackMIT", SyntheticAnswer: "Yes."},
				Verdict:  model.VerdictVerified,
			},
		},
		CreatedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLedger_SaveBundleIsIdempotent(t *testing.T) {
	l, store, _ := NewMemory()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.SaveBundle(ctx, testBundle()); err != nil {
			t.Fatalf("SaveBundle %d failed: %v", i, err)
		}
	}

	if store.BundleCount() != 1 {
		t.Errorf("expected a single stored bundle, got %d", store.BundleCount())
	}

	got, err := l.Bundle(ctx, "sub-1")
	if err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}
	if got.FullName != "Ada Park" || len(got.Records) != 1 || got.Records[0].Verdict != model.VerdictVerified {
		t.Errorf("unexpected bundle %+v", got)
	}
}

func TestLedger_BundleNotFound(t *testing.T) {
	l, _, _ := NewMemory()
	if _, err := l.Bundle(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLedger_SaveBundleFailure(t *testing.T) {
	cause := errors.New("connection refused")
	l := New(&MockStore{Err: cause}, &MockStore{}, &MockStore{}, time.Second)

	err := l.SaveBundle(context.Background(), testBundle())

	var pe *model.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if pe.Op != "bundle" || pe.Key != "sub-1" {
		t.Errorf("unexpected error fields %+v", pe)
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be wrapped")
	}
}

func TestLedger_RecordAnalyticsSwallowsErrors(t *testing.T) {
	l := New(&MockStore{}, &MockStore{Err: errors.New("down")}, &MockStore{}, time.Second)
	// Must not panic or block
	l.RecordAnalytics(context.Background(), model.AnalyticsRecord{ID: "sub-1"})
}

func TestLedger_RecordAnalytics(t *testing.T) {
	l, store, _ := NewMemory()
	sub := model.Submission{ID: "sub-1", Email: "ada@example.com", Role: "SWE"}

	l.RecordAnalytics(context.Background(), sub.Analytics(time.Now()))

	rec, ok := store.Analytics("sub-1")
	if !ok {
		t.Fatal("expected analytics row")
	}
	if rec.Role != "SWE" || rec.Email != "ada@example.com" {
		t.Errorf("unexpected row %+v", rec)
	}
}

func TestLedger_SaveRawBlob(t *testing.T) {
	l, _, blobs := NewMemory()
	ctx := context.Background()

	doc := []byte("%PDF-1.7 ...")
	if err := l.SaveRawBlob(ctx, "sub-1", doc, "application/pdf"); err != nil {
		t.Fatalf("SaveRawBlob failed: %v", err)
	}
	doc[0] = 'X'

	data, ct, err := blobs.GetBlob(ctx, "sub-1")
	if err != nil {
		t.Fatalf("GetBlob failed: %v", err)
	}
	if string(data) != "%PDF-1.7 ..." || ct != "application/pdf" {
		t.Errorf("unexpected blob %q (%s)", data, ct)
	}
}

func TestLedger_SaveRawBlobFailure(t *testing.T) {
	l := New(&MockStore{}, &MockStore{}, &MockStore{Err: errors.New("bucket missing")}, time.Second)

	err := l.SaveRawBlob(context.Background(), "sub-1", []byte("x"), "text/plain")
	var pe *model.PersistenceError
	if !errors.As(err, &pe) || pe.Op != "blob" {
		t.Errorf("expected blob PersistenceError, got %v", err)
	}
}

func TestDiskBlobStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskBlobStore failed: %v", err)
	}

	if err := store.PutBlob(ctx, "sub-1", []byte("v1"), "text/plain"); err != nil {
		t.Fatalf("PutBlob failed: %v", err)
	}
	if err := store.PutBlob(ctx, "sub-1", []byte("v2"), "text/markdown"); err != nil {
		t.Fatalf("PutBlob overwrite failed: %v", err)
	}

	data, ct, err := store.GetBlob(ctx, "sub-1")
	if err != nil {
		t.Fatalf("GetBlob failed: %v", err)
	}
	if string(data) != "v2" || ct != "text/markdown" {
		t.Errorf("unexpected blob %q (%s)", data, ct)
	}

	if _, _, err := store.GetBlob(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.PutBlob(ctx, "../escape", []byte("x"), ""); err == nil {
		t.Error("expected path traversal key to be rejected")
	}
}
