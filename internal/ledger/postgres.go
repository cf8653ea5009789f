package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ppiankov/skilldiff/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS submission_results (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	bundle     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS submission_analytics (
	id                TEXT PRIMARY KEY,
	email             TEXT NOT NULL,
	role              TEXT NOT NULL DEFAULT '',
	name              TEXT NOT NULL DEFAULT '',
	company_or_school TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL
);`

const upsertBundle = `
INSERT INTO submission_results (id, email, bundle, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET email = EXCLUDED.email, bundle = EXCLUDED.bundle, updated_at = now()`

const selectBundle = `SELECT bundle FROM submission_results WHERE id = $1`

const upsertAnalytics = `
INSERT INTO submission_analytics (id, email, role, name, company_or_school, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET email = EXCLUDED.email, role = EXCLUDED.role, name = EXCLUDED.name,
    company_or_school = EXCLUDED.company_or_school`

// querier is the subset of *pgxpool.Pool the store uses
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore stores bundles and analytics rows in Postgres
type PostgresStore struct {
	db   querier
	pool *pgxpool.Pool
}

// NewPostgresStore connects, verifies the connection and ensures the schema exists
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	s := &PostgresStore{db: pool, pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they are missing
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// PutBundle upserts the bundle
func (s *PostgresStore) PutBundle(ctx context.Context, bundle *model.SubmissionResultBundle) error {
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if _, err := s.db.Exec(ctx, upsertBundle, bundle.ID, bundle.Email, data, bundle.CreatedAt); err != nil {
		return fmt.Errorf("upsert bundle: %w", err)
	}
	return nil
}

// GetBundle reads the bundle for id
func (s *PostgresStore) GetBundle(ctx context.Context, id string) (*model.SubmissionResultBundle, error) {
	var data []byte
	if err := s.db.QueryRow(ctx, selectBundle, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select bundle: %w", err)
	}

	var bundle model.SubmissionResultBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("unmarshal bundle: %w", err)
	}
	return &bundle, nil
}

// PutAnalytics upserts an analytics row
func (s *PostgresStore) PutAnalytics(ctx context.Context, rec model.AnalyticsRecord) error {
	_, err := s.db.Exec(ctx, upsertAnalytics, rec.ID, rec.Email, rec.Role, rec.Name, rec.CompanyOrSchool, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert analytics: %w", err)
	}
	return nil
}

// Close releases the pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
