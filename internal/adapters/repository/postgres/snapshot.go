// Package postgres provides a PostgreSQL-backed layout snapshot store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/signalflow/signalflow/internal/core/layout"
	"github.com/signalflow/signalflow/pkg/serialization"
)

// SnapshotStore implements layout.Store on PostgreSQL via a pgx pool.
type SnapshotStore struct {
	pool       *pgxpool.Pool
	serializer *serialization.Serializer
	tableName  string
}

// NewSnapshotStore creates a PostgreSQL snapshot store over an open pool.
func NewSnapshotStore(pool *pgxpool.Pool, serializer *serialization.Serializer) *SnapshotStore {
	if serializer == nil {
		serializer = serialization.Default()
	}
	return &SnapshotStore{
		pool:       pool,
		serializer: serializer,
		tableName:  "layout_snapshots",
	}
}

// WithTableName overrides the default table name. Only alphanumeric and
// underscore are permitted.
func (s *SnapshotStore) WithTableName(name string) *SnapshotStore {
	if isSafeIdent(name) {
		s.tableName = name
	}
	return s
}

func isSafeIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			continue
		}
		return false
	}
	return true
}

// CreateTables creates the snapshot table and its listing indexes.
func (s *SnapshotStore) CreateTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			document BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			version INTEGER NOT NULL DEFAULT 1
		);

		CREATE INDEX IF NOT EXISTS idx_%s_name ON %s (name);
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at);
	`, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Save stores a snapshot, updating the row on id conflict.
func (s *SnapshotStore) Save(ctx context.Context, snap *layout.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	data, err := s.serializer.Serialize(snap.Document)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot document: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, document, created_at, version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			document = EXCLUDED.document,
			created_at = EXCLUDED.created_at,
			version = EXCLUDED.version
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		snap.ID, snap.Name, data, snap.CreatedAt, snap.Version)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load retrieves a snapshot by id.
func (s *SnapshotStore) Load(ctx context.Context, id string) (*layout.Snapshot, error) {
	if id == "" {
		return nil, layout.ErrInvalidSnapshotID
	}

	query := fmt.Sprintf(`
		SELECT id, name, document, created_at, version
		FROM %s
		WHERE id = $1
	`, s.tableName)

	var snap layout.Snapshot
	var data []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&snap.ID, &snap.Name, &data, &snap.CreatedAt, &snap.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, layout.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := s.serializer.Deserialize(data, &snap.Document); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot document: %w", err)
	}
	return &snap, nil
}

// List retrieves snapshots matching the filter, newest first.
func (s *SnapshotStore) List(ctx context.Context, filter layout.Filter) ([]*layout.Snapshot, error) {
	query, args := s.buildListQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*layout.Snapshot
	for rows.Next() {
		var snap layout.Snapshot
		var data []byte
		if err := rows.Scan(&snap.ID, &snap.Name, &data, &snap.CreatedAt, &snap.Version); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if err := s.serializer.Deserialize(data, &snap.Document); err != nil {
			return nil, fmt.Errorf("failed to deserialize snapshot document: %w", err)
		}
		snapshots = append(snapshots, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// Delete removes a snapshot by id.
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return layout.ErrInvalidSnapshotID
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return layout.ErrSnapshotNotFound
	}
	return nil
}

// Close releases the underlying pool.
func (s *SnapshotStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *SnapshotStore) buildListQuery(filter layout.Filter) (string, []interface{}) {
	query := fmt.Sprintf("SELECT id, name, document, created_at, version FROM %s WHERE 1=1", s.tableName)
	args := make([]interface{}, 0)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Name != "" {
		query += " AND name = " + arg(filter.Name)
	}
	if !filter.Before.IsZero() {
		query += " AND created_at < " + arg(filter.Before)
	}
	if !filter.After.IsZero() {
		query += " AND created_at > " + arg(filter.After)
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	return query, args
}
