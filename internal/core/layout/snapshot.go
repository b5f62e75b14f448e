package layout

import (
	"context"
	"time"
)

// Snapshot is one stored layout document with identity and bookkeeping.
type Snapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Document  Document  `json:"document"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
}

// Validate ensures snapshot integrity before storage.
func (s *Snapshot) Validate() error {
	if s == nil || s.ID == "" {
		return ErrInvalidSnapshotID
	}
	if s.Name == "" {
		return ErrInvalidSnapshotName
	}
	return nil
}

// Filter narrows snapshot listings.
type Filter struct {
	Name   string
	Before time.Time
	After  time.Time
	Limit  int
}

// Store persists layout snapshots. Implementations are provided for memory,
// SQLite, and PostgreSQL.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	List(ctx context.Context, filter Filter) ([]*Snapshot, error)
	Delete(ctx context.Context, id string) error
}
