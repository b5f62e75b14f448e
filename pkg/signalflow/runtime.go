package signalflow

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/signalflow/signalflow/internal/adapters/repository/memory"
	"github.com/signalflow/signalflow/internal/app/dto"
	"github.com/signalflow/signalflow/internal/app/services"
	"github.com/signalflow/signalflow/internal/app/usecases"
	"github.com/signalflow/signalflow/internal/core/forward"
	coregraph "github.com/signalflow/signalflow/internal/core/graph"
	corelayout "github.com/signalflow/signalflow/internal/core/layout"
	"github.com/signalflow/signalflow/internal/infrastructure/bus"
	"github.com/signalflow/signalflow/pkg/validation"
)

// Re-export core types for convenience.
type (
	Graph    = coregraph.Graph
	Node     = coregraph.Node
	Edge     = coregraph.Edge
	NodeKind = coregraph.NodeKind
	Position = coregraph.Position

	Document      = corelayout.Document
	GridSettings  = corelayout.GridSettings
	Snapshot      = corelayout.Snapshot
	SnapshotStore = corelayout.Store
	Filter        = corelayout.Filter

	Sample = forward.Sample

	PlayRequest  = dto.PlayRequest
	PlayResponse = dto.PlayResponse

	Canvas   = services.Canvas
	EdgePath = services.EdgePath

	ImportReport = validation.ImportReport
)

// Re-export node-kind constants for convenience.
const (
	KindChannel    = coregraph.KindChannel
	KindFilter     = coregraph.KindFilter
	KindEnvelope   = coregraph.KindEnvelope
	KindPlot       = coregraph.KindPlot
	KindSpiderplot = coregraph.KindSpiderplot
	KindFFT        = coregraph.KindFFT
	KindBandpower  = coregraph.KindBandpower
	KindCandle     = coregraph.KindCandle
)

// GridOffset wraps a margin value for PlayRequest's optional Offset field.
func GridOffset(n int) *int { return dto.GridOffset(n) }

// Runtime is a façade to build and play flow graphs without importing
// internal packages directly. The default runtime uses in-memory components
// and is suitable for local usage and tests.
type Runtime struct {
	graph   *coregraph.Graph
	broker  *bus.Broker
	player  *usecases.Player
	layouts *services.LayoutService
}

// NewRuntime constructs a default runtime around a fresh empty graph.
func NewRuntime() *Runtime {
	return NewRuntimeWithGraph(coregraph.NewGraph())
}

// NewRuntimeWithGraph constructs a default runtime around an existing graph,
// e.g. one built by a prebuilt template or restored from a snapshot.
func NewRuntimeWithGraph(g *coregraph.Graph) *Runtime {
	broker := bus.NewBroker()
	engine := forward.NewEngine(g, broker).WithLogger(log.Default())
	player := usecases.NewPlayer(g, engine)
	layouts := services.NewLayoutService(memory.NewSnapshotStore())

	return &Runtime{
		graph:   g,
		broker:  broker,
		player:  player,
		layouts: layouts,
	}
}

// WithStore substitutes the snapshot store, e.g. a SQLite or PostgreSQL one.
func (rt *Runtime) WithStore(store corelayout.Store) *Runtime {
	if store != nil {
		rt.layouts = services.NewLayoutService(store)
	}
	return rt
}

// Graph exposes the runtime's graph for wiring nodes and edges.
func (rt *Runtime) Graph() *coregraph.Graph {
	return rt.graph
}

// Play arranges the graph and starts live forwarding. A zero-value request
// uses the default presentation grid.
func (rt *Runtime) Play(req PlayRequest) (*PlayResponse, error) {
	return rt.player.Play(req)
}

// Stop tears down the running play session.
func (rt *Runtime) Stop() error {
	return rt.player.Stop()
}

// Playing reports whether a play session is active.
func (rt *Runtime) Playing() bool {
	return rt.player.Playing()
}

// EmitSamples pushes one batch of channel samples into the live bus. Keys
// follow the "ch<N>" convention, e.g. Sample{"ch0": 0.42}.
func (rt *Runtime) EmitSamples(batch []Sample) {
	rt.broker.EmitSamples(batch)
}

// Publish pushes processed output values for a materialized instance.
func (rt *Runtime) Publish(targetID string, values []float64) {
	rt.broker.Publish(targetID, values)
}

// SubscribeOutputs taps the values forwarded to one materialized instance,
// which is how rendering sinks consume a play session.
func (rt *Runtime) SubscribeOutputs(targetID string, fn func(values []float64)) forward.Unsubscribe {
	return rt.broker.SubscribeOutputs(targetID, fn)
}

// EdgePaths computes obstacle-avoiding drawable paths for the graph's edges
// at their current positions. A zero-value canvas uses the default viewport.
func (rt *Runtime) EdgePaths(canvas Canvas) []EdgePath {
	return services.EdgePaths(rt.graph, canvas)
}

// Export captures the graph and drawing state as a portable document.
func (rt *Runtime) Export(grid GridSettings) (*Document, error) {
	return rt.layouts.Export(rt.graph, grid)
}

// Import replaces the runtime graph with one rebuilt from a document.
// Invalid entries are skipped and reported, valid ones applied.
func (rt *Runtime) Import(doc *Document) (*ImportReport, error) {
	g, report, err := rt.layouts.Import(doc)
	if err != nil {
		return nil, err
	}
	rt.swapGraph(g)
	return report, nil
}

// SaveSnapshot exports the graph and persists it under a fresh id.
func (rt *Runtime) SaveSnapshot(ctx context.Context, name string, grid GridSettings) (*Snapshot, error) {
	return rt.layouts.SaveSnapshot(ctx, name, rt.graph, grid)
}

// LoadSnapshot replaces the runtime graph with a stored snapshot's graph.
func (rt *Runtime) LoadSnapshot(ctx context.Context, id string) (*ImportReport, error) {
	g, report, err := rt.layouts.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	rt.swapGraph(g)
	return report, nil
}

// ListSnapshots lists stored snapshots.
func (rt *Runtime) ListSnapshots(ctx context.Context, filter corelayout.Filter) ([]*Snapshot, error) {
	return rt.layouts.ListSnapshots(ctx, filter)
}

// DeleteSnapshot removes a stored snapshot.
func (rt *Runtime) DeleteSnapshot(ctx context.Context, id string) error {
	return rt.layouts.DeleteSnapshot(ctx, id)
}

// Close stops any running session and shuts the bus down.
func (rt *Runtime) Close() {
	if rt.player.Playing() {
		_ = rt.player.Stop()
	}
	rt.broker.Close()
}

// swapGraph rebinds the runtime to a new graph; an active session over the
// old graph is stopped first.
func (rt *Runtime) swapGraph(g *coregraph.Graph) {
	if rt.player.Playing() {
		_ = rt.player.Stop()
	}
	rt.graph = g
	engine := forward.NewEngine(g, rt.broker).WithLogger(log.Default())
	rt.player = usecases.NewPlayer(g, engine)
}
