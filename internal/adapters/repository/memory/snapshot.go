// Package memory provides an in-memory layout snapshot store, used by the
// runtime default wiring and as the reference Store implementation in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/signalflow/signalflow/internal/core/layout"
	"github.com/signalflow/signalflow/pkg/serialization"
)

// SnapshotStore implements layout.Store with thread-safe in-memory storage.
// Snapshots are held in serialized form so loads hand out independent copies.
type SnapshotStore struct {
	mu         sync.RWMutex
	entries    map[string][]byte
	serializer *serialization.Serializer
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		entries:    make(map[string][]byte),
		serializer: serialization.Default(),
	}
}

// WithSerializer substitutes the wire format used for stored entries.
func (s *SnapshotStore) WithSerializer(serializer *serialization.Serializer) *SnapshotStore {
	if serializer != nil {
		s.serializer = serializer
	}
	return s
}

// Save stores a snapshot, replacing any existing entry with the same id.
func (s *SnapshotStore) Save(_ context.Context, snap *layout.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	data, err := s.serializer.Serialize(snap)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	s.mu.Lock()
	s.entries[snap.ID] = data
	s.mu.Unlock()
	return nil
}

// Load retrieves a snapshot by id.
func (s *SnapshotStore) Load(_ context.Context, id string) (*layout.Snapshot, error) {
	if id == "" {
		return nil, layout.ErrInvalidSnapshotID
	}
	s.mu.RLock()
	data, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, layout.ErrSnapshotNotFound
	}
	var snap layout.Snapshot
	if err := s.serializer.Deserialize(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
	}
	return &snap, nil
}

// List retrieves snapshots matching the filter, newest first.
func (s *SnapshotStore) List(_ context.Context, filter layout.Filter) ([]*layout.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*layout.Snapshot
	for _, data := range s.entries {
		var snap layout.Snapshot
		if err := s.serializer.Deserialize(data, &snap); err != nil {
			return nil, fmt.Errorf("failed to deserialize snapshot: %w", err)
		}
		if !matches(&snap, filter) {
			continue
		}
		out = append(out, &snap)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Delete removes a snapshot by id.
func (s *SnapshotStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return layout.ErrInvalidSnapshotID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return layout.ErrSnapshotNotFound
	}
	delete(s.entries, id)
	return nil
}

// Len reports the number of stored snapshots.
func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func matches(snap *layout.Snapshot, filter layout.Filter) bool {
	if filter.Name != "" && snap.Name != filter.Name {
		return false
	}
	if !filter.Before.IsZero() && !snap.CreatedAt.Before(filter.Before) {
		return false
	}
	if !filter.After.IsZero() && !snap.CreatedAt.After(filter.After) {
		return false
	}
	return true
}
