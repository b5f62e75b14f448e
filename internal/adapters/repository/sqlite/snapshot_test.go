package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalflow/signalflow/internal/core/layout"
	"github.com/signalflow/signalflow/pkg/serialization"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewSnapshotStore(db, serialization.Default())
	require.NoError(t, store.CreateTables(context.Background()))
	return store
}

func testSnapshot(id, name string, createdAt time.Time) *layout.Snapshot {
	return &layout.Snapshot{
		ID:   id,
		Name: name,
		Document: layout.Document{
			Nodes: []layout.NodeDocument{
				{ID: "channel-0", Kind: "channel", Config: map[string]interface{}{"index": float64(0)}},
				{ID: "plot-0", Kind: "plot", Instances: []string{"plot-0-0"}},
			},
			Connections:  []layout.Connection{{From: "channel-0", To: "plot-0"}},
			GridSettings: layout.GridSettings{Cols: 24, Rows: 16},
			ChannelCount: 1,
		},
		CreatedAt: createdAt,
		Version:   1,
	}
}

func TestSnapshotStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := testSnapshot("snap-1", "morning", time.Now())
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx, "snap-1")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, loaded.ID)
	assert.Equal(t, snap.Name, loaded.Name)
	assert.Equal(t, snap.Version, loaded.Version)
	assert.Equal(t, snap.CreatedAt.Unix(), loaded.CreatedAt.Unix())
	assert.Equal(t, snap.Document.Nodes, loaded.Document.Nodes)
	assert.Equal(t, snap.Document.Connections, loaded.Document.Connections)
	assert.Equal(t, 1, loaded.Document.ChannelCount)
}

func TestSnapshotStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot("snap-1", "first", time.Now())))
	require.NoError(t, store.Save(ctx, testSnapshot("snap-1", "second", time.Now())))

	loaded, err := store.Load(ctx, "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "second", loaded.Name)

	list, err := store.List(ctx, layout.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSnapshotStore_SaveInvalid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Save(ctx, &layout.Snapshot{Name: "no id"})
	assert.ErrorIs(t, err, layout.ErrInvalidSnapshotID)

	err = store.Save(ctx, &layout.Snapshot{ID: "snap-1"})
	assert.ErrorIs(t, err, layout.ErrInvalidSnapshotName)
}

func TestSnapshotStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, layout.ErrSnapshotNotFound)

	_, err = store.Load(context.Background(), "")
	assert.ErrorIs(t, err, layout.ErrInvalidSnapshotID)
}

func TestSnapshotStore_List(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	require.NoError(t, store.Save(ctx, testSnapshot("snap-1", "alpha", base)))
	require.NoError(t, store.Save(ctx, testSnapshot("snap-2", "beta", base.Add(10*time.Minute))))
	require.NoError(t, store.Save(ctx, testSnapshot("snap-3", "alpha", base.Add(20*time.Minute))))

	t.Run("all newest first", func(t *testing.T) {
		list, err := store.List(ctx, layout.Filter{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "snap-3", list[0].ID)
		assert.Equal(t, "snap-1", list[2].ID)
	})

	t.Run("by name", func(t *testing.T) {
		list, err := store.List(ctx, layout.Filter{Name: "alpha"})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("time window", func(t *testing.T) {
		list, err := store.List(ctx, layout.Filter{
			After:  base.Add(5 * time.Minute),
			Before: base.Add(15 * time.Minute),
		})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "snap-2", list[0].ID)
	})

	t.Run("limit", func(t *testing.T) {
		list, err := store.List(ctx, layout.Filter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "snap-3", list[0].ID)
	})
}

func TestSnapshotStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot("snap-1", "alpha", time.Now())))
	require.NoError(t, store.Delete(ctx, "snap-1"))

	_, err := store.Load(ctx, "snap-1")
	assert.ErrorIs(t, err, layout.ErrSnapshotNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "snap-1"), layout.ErrSnapshotNotFound)
}

func TestSnapshotStore_WithTableName(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewSnapshotStore(db, nil).WithTableName("custom_snaps")
	assert.Equal(t, "custom_snaps", store.tableName)

	// Unsafe identifiers are ignored.
	store.WithTableName("snaps; DROP TABLE x")
	assert.Equal(t, "custom_snaps", store.tableName)

	ctx := context.Background()
	require.NoError(t, store.CreateTables(ctx))
	require.NoError(t, store.Save(ctx, testSnapshot("snap-1", "alpha", time.Now())))

	loaded, err := store.Load(ctx, "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "alpha", loaded.Name)
}
