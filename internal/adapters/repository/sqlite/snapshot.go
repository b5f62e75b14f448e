// Package sqlite provides a SQLite-backed layout snapshot store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/signalflow/signalflow/internal/core/layout"
	"github.com/signalflow/signalflow/pkg/serialization"
)

// SnapshotStore implements layout.Store on SQLite. The document is stored as
// an opaque serialized blob; identity and listing columns stay relational.
type SnapshotStore struct {
	db         *sql.DB
	serializer *serialization.Serializer
	tableName  string
}

// NewSnapshotStore creates a SQLite snapshot store over an open database.
func NewSnapshotStore(db *sql.DB, serializer *serialization.Serializer) *SnapshotStore {
	if serializer == nil {
		serializer = serialization.Default()
	}
	return &SnapshotStore{
		db:         db,
		serializer: serializer,
		tableName:  "layout_snapshots",
	}
}

// WithTableName overrides the default table name. Only alphanumeric and
// underscore are permitted to keep identifiers out of injection territory.
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
			document BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			version INTEGER NOT NULL DEFAULT 1
		);

		CREATE INDEX IF NOT EXISTS idx_%s_name ON %s (name);
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at);
	`, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Save stores a snapshot, replacing any existing row with the same id.
func (s *SnapshotStore) Save(ctx context.Context, snap *layout.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	data, err := s.serializer.Serialize(snap.Document)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot document: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (id, name, document, created_at, version)
		VALUES (?, ?, ?, ?, ?)
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		snap.ID, snap.Name, data, snap.CreatedAt.Unix(), snap.Version)
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
		WHERE id = ?
	`, s.tableName)

	snap, err := s.scanRow(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, layout.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, nil
}

// List retrieves snapshots matching the filter, newest first.
func (s *SnapshotStore) List(ctx context.Context, filter layout.Filter) ([]*layout.Snapshot, error) {
	query, args := s.buildListQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*layout.Snapshot
	for rows.Next() {
		snap, err := s.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snapshots = append(snapshots, snap)
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

	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return layout.ErrSnapshotNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SnapshotStore) scanRow(row rowScanner) (*layout.Snapshot, error) {
	var snap layout.Snapshot
	var data []byte
	var createdAt int64

	if err := row.Scan(&snap.ID, &snap.Name, &data, &createdAt, &snap.Version); err != nil {
		return nil, err
	}
	snap.CreatedAt = time.Unix(createdAt, 0)

	if err := s.serializer.Deserialize(data, &snap.Document); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot document: %w", err)
	}
	return &snap, nil
}

func (s *SnapshotStore) buildListQuery(filter layout.Filter) (string, []interface{}) {
	query := fmt.Sprintf("SELECT id, name, document, created_at, version FROM %s WHERE 1=1", s.tableName)
	args := make([]interface{}, 0)

	if filter.Name != "" {
		query += " AND name = ?"
		args = append(args, filter.Name)
	}
	if !filter.Before.IsZero() {
		query += " AND created_at < ?"
		args = append(args, filter.Before.Unix())
	}
	if !filter.After.IsZero() {
		query += " AND created_at > ?"
		args = append(args, filter.After.Unix())
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	return query, args
}
