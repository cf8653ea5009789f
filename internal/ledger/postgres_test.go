package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ppiankov/skilldiff/internal/model"
)

// MockQuerier records statements and serves bundles from a map keyed by id
type MockQuerier struct {
	Statements []string
	Rows       map[string][]byte
	ExecErr    error
}

type mockRow struct {
	data []byte
	err  error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.data
	return nil
}

func (m *MockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.Statements = append(m.Statements, sql)
	if m.ExecErr != nil {
		return pgconn.CommandTag{}, m.ExecErr
	}
	if strings.Contains(sql, "submission_results") && len(args) >= 3 {
		if m.Rows == nil {
			m.Rows = map[string][]byte{}
		}
		m.Rows[args[0].(string)] = args[2].([]byte)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *MockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	data, ok := m.Rows[args[0].(string)]
	if !ok {
		return mockRow{err: pgx.ErrNoRows}
	}
	return mockRow{data: data}
}

func TestPostgresStore_Bundle(t *testing.T) {
	q := &MockQuerier{}
	store := &PostgresStore{db: q}
	ctx := context.Background()

	if err := store.PutBundle(ctx, testBundle()); err != nil {
		t.Fatalf("PutBundle failed: %v", err)
	}
	if !strings.Contains(q.Statements[0], "ON CONFLICT (id) DO UPDATE") {
		t.Error("expected bundle writes to upsert")
	}

	got, err := store.GetBundle(ctx, "sub-1")
	if err != nil {
		t.Fatalf("GetBundle failed: %v", err)
	}
	if got.School != "MIT" || len(got.Records) != 1 {
		t.Errorf("unexpected bundle %+v", got)
	}

	var raw map[string]any
	if err := json.Unmarshal(q.Rows["sub-1"], &raw); err != nil {
		t.Fatalf("stored bundle is not JSON: %v", err)
	}
}

func TestPostgresStore_NotFound(t *testing.T) {
	store := &PostgresStore{db: &MockQuerier{}}
	if _, err := store.GetBundle(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_ExecErrors(t *testing.T) {
	cause := errors.New("relation does not exist")
	store := &PostgresStore{db: &MockQuerier{ExecErr: cause}}
	ctx := context.Background()

	if err := store.PutBundle(ctx, testBundle()); !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if err := store.PutAnalytics(ctx, model.AnalyticsRecord{ID: "sub-1"}); !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if err := store.Migrate(ctx); !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestPostgresStore_Migrate(t *testing.T) {
	q := &MockQuerier{}
	store := &PostgresStore{db: q}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if !strings.Contains(q.Statements[0], "CREATE TABLE IF NOT EXISTS submission_analytics") {
		t.Error("expected analytics table in schema")
	}
	store.Close()
}
