package ledger

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ppiankov/skilldiff/internal/model"
)

// FirestoreStore stores bundles and analytics rows as Firestore documents
type FirestoreStore struct {
	client    *firestore.Client
	bundles   string
	analytics string
}

// NewFirestoreStore creates a store. database may be empty for the default database.
func NewFirestoreStore(ctx context.Context, projectID, database, collection string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	if collection == "" {
		collection = "submissions"
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &FirestoreStore{
		client:    client,
		bundles:   collection,
		analytics: collection + "_analytics",
	}, nil
}

// PutBundle overwrites the document named by the bundle id
func (s *FirestoreStore) PutBundle(ctx context.Context, bundle *model.SubmissionResultBundle) error {
	if _, err := s.client.Collection(s.bundles).Doc(bundle.ID).Set(ctx, bundle); err != nil {
		return fmt.Errorf("set bundle: %w", err)
	}
	return nil
}

// GetBundle reads the bundle document for id
func (s *FirestoreStore) GetBundle(ctx context.Context, id string) (*model.SubmissionResultBundle, error) {
	doc, err := s.client.Collection(s.bundles).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get bundle: %w", err)
	}

	var bundle model.SubmissionResultBundle
	if err := doc.DataTo(&bundle); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return &bundle, nil
}

// PutAnalytics overwrites the analytics document for rec.ID
func (s *FirestoreStore) PutAnalytics(ctx context.Context, rec model.AnalyticsRecord) error {
	if _, err := s.client.Collection(s.analytics).Doc(rec.ID).Set(ctx, rec); err != nil {
		return fmt.Errorf("set analytics: %w", err)
	}
	return nil
}

// Close releases the client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
