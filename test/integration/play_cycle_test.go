// Package integration exercises the full play cycle: build a graph, arrange
// it, forward live samples, snapshot it, and restore it.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalflow/signalflow/internal/adapters/repository/sqlite"
	"github.com/signalflow/signalflow/pkg/prebuilt"
	"github.com/signalflow/signalflow/pkg/serialization"
	"github.com/signalflow/signalflow/pkg/signalflow"
)

func TestFullPlayCycle(t *testing.T) {
	const channels = 3

	g, err := prebuilt.PlotDashboard(channels)
	require.NoError(t, err)
	rt := signalflow.NewRuntimeWithGraph(g)
	defer rt.Close()

	// Tap every plot instance before playing.
	received := make(map[string][]float64)
	plot, ok := g.Node("plot-0")
	require.True(t, ok)
	require.Len(t, plot.Instances, channels)
	for _, inst := range plot.Instances {
		id := inst
		rt.SubscribeOutputs(id, func(values []float64) {
			received[id] = append(received[id], values...)
		})
	}

	resp, err := rt.Play(signalflow.PlayRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Tiles, 1)
	assert.Equal(t, "plot-0", resp.Tiles[0].ID)
	assert.Len(t, resp.Subscriptions, channels)

	// One batch carrying all channels: each instance sees its own channel.
	sample := signalflow.Sample{}
	for i := 0; i < channels; i++ {
		sample[fmt.Sprintf("ch%d", i)] = 0.1 * float64(i+1)
	}
	rt.EmitSamples([]signalflow.Sample{sample})

	require.Len(t, received, channels)
	for i, inst := range plot.Instances {
		require.Len(t, received[inst], 1, inst)
		assert.InDelta(t, 0.1*float64(i+1), received[inst][0], 1e-9, inst)
	}

	require.NoError(t, rt.Stop())

	// Stopped sessions forward nothing.
	rt.EmitSamples([]signalflow.Sample{sample})
	for _, inst := range plot.Instances {
		assert.Len(t, received[inst], 1, inst)
	}
}

func TestSnapshotRoundTripThroughSQLite(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	store := sqlite.NewSnapshotStore(db, serialization.Default())
	require.NoError(t, store.CreateTables(context.Background()))

	g, err := prebuilt.BandpowerDashboard(2)
	require.NoError(t, err)
	rt := signalflow.NewRuntimeWithGraph(g).WithStore(store)
	defer rt.Close()

	ctx := context.Background()
	snap, err := rt.SaveSnapshot(ctx, "bands", signalflow.GridSettings{Cols: 24, Rows: 16})
	require.NoError(t, err)

	// Wreck the live graph, then restore from the snapshot.
	for _, node := range rt.Graph().Nodes() {
		if node.Kind == signalflow.KindEnvelope {
			require.NoError(t, rt.Graph().RemoveNode(node.ID))
		}
	}

	report, err := rt.LoadSnapshot(ctx, snap.ID)
	require.NoError(t, err)
	assert.Zero(t, report.Total())

	envelopes := 0
	bandpowers := 0
	for _, node := range rt.Graph().Nodes() {
		switch node.Kind {
		case signalflow.KindEnvelope:
			envelopes++
		case signalflow.KindBandpower:
			bandpowers++
		}
	}
	assert.Equal(t, 2, envelopes)
	assert.Equal(t, 2, bandpowers)

	// Restored graphs are playable.
	resp, err := rt.Play(signalflow.PlayRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Tiles)
	require.NoError(t, rt.Stop())
}
