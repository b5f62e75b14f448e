// Package services implements the application services that convert between
// the live graph and its persisted forms.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalflow/signalflow/internal/core/graph"
	"github.com/signalflow/signalflow/internal/core/layout"
	"github.com/signalflow/signalflow/internal/infrastructure/metrics"
	"github.com/signalflow/signalflow/pkg/validation"
)

// SnapshotVersion is stamped on snapshots written by this build.
const SnapshotVersion = 1

// LayoutService converts graphs to persisted layout documents and back, and
// manages named snapshots through a layout store.
type LayoutService struct {
	store layout.Store
}

// NewLayoutService creates a layout service backed by the given store. The
// store may be nil when only Export and Import are needed.
func NewLayoutService(store layout.Store) *LayoutService {
	return &LayoutService{store: store}
}

// Export captures the graph and its drawing state as a persisted document.
func (s *LayoutService) Export(g *graph.Graph, grid layout.GridSettings) (*layout.Document, error) {
	doc := &layout.Document{
		GridSettings: grid,
		ChannelCount: g.ChannelCount(),
		ExportedAt:   time.Now(),
	}
	for _, node := range g.Nodes() {
		cfg, err := graph.EncodeConfig(node.Config)
		if err != nil {
			return nil, fmt.Errorf("export node %s: %w", node.ID, err)
		}
		doc.Nodes = append(doc.Nodes, layout.NodeDocument{
			ID:        node.ID,
			Kind:      string(node.Kind),
			Config:    cfg,
			Instances: append([]string(nil), node.Instances...),
		})
	}
	for _, e := range g.Edges() {
		doc.Connections = append(doc.Connections, layout.Connection{From: e.From, To: e.To})
	}
	positions := g.Positions()
	if len(positions) > 0 {
		doc.ModalPositions = make(map[string]layout.Position, len(positions))
		for id, pos := range positions {
			doc.ModalPositions[id] = layout.Position{Left: pos.Left, Top: pos.Top}
		}
	}
	return doc, nil
}

// Import rebuilds a graph from a persisted document. Entries that fail
// validation or cannot be applied are skipped and counted; valid entries are
// always applied. The returned report is informational, not an error.
func (s *LayoutService) Import(doc *layout.Document) (*graph.Graph, *validation.ImportReport, error) {
	if doc == nil {
		return nil, nil, layout.ErrEmptyDocument
	}

	g := graph.NewGraph()
	report := &validation.ImportReport{}

	for _, nd := range doc.Nodes {
		if err := validation.Node(nd); err != nil {
			report.Skip(&report.SkippedNodes, fmt.Sprintf("node %q: %v", nd.ID, err))
			continue
		}
		kind := graph.NodeKind(nd.Kind)
		cfg, err := graph.DecodeConfig(kind, nd.Config)
		if err != nil {
			report.Skip(&report.SkippedNodes, fmt.Sprintf("node %q: %v", nd.ID, err))
			continue
		}
		if err := g.RestoreNode(nd.ID, kind, cfg, nd.Instances); err != nil {
			report.Skip(&report.SkippedNodes, fmt.Sprintf("node %q: %v", nd.ID, err))
		}
	}

	for _, conn := range doc.Connections {
		if err := validation.Connection(conn); err != nil {
			report.Skip(&report.SkippedEdges, fmt.Sprintf("edge %s=>%s: %v", conn.From, conn.To, err))
			continue
		}
		if err := g.Connect(conn.From, conn.To); err != nil {
			report.Skip(&report.SkippedEdges, fmt.Sprintf("edge %s=>%s: %v", conn.From, conn.To, err))
		}
	}

	for id, pos := range doc.ModalPositions {
		if err := validation.Position(pos); err != nil {
			report.Skip(&report.SkippedPositions, fmt.Sprintf("position %q: %v", id, err))
			continue
		}
		if err := g.SetPosition(id, graph.Position{Left: pos.Left, Top: pos.Top}); err != nil {
			report.Skip(&report.SkippedPositions, fmt.Sprintf("position %q: %v", id, err))
		}
	}

	if report.Total() > 0 {
		metrics.AddImportSkipped(report.Total())
	}
	return g, report, nil
}

// SaveSnapshot exports the graph and persists it under a fresh snapshot id.
func (s *LayoutService) SaveSnapshot(ctx context.Context, name string, g *graph.Graph, grid layout.GridSettings) (*layout.Snapshot, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	doc, err := s.Export(g, grid)
	if err != nil {
		return nil, err
	}
	snap := &layout.Snapshot{
		ID:        uuid.NewString(),
		Name:      name,
		Document:  *doc,
		CreatedAt: time.Now(),
		Version:   SnapshotVersion,
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

// LoadSnapshot loads a stored snapshot and rebuilds its graph.
func (s *LayoutService) LoadSnapshot(ctx context.Context, id string) (*graph.Graph, *validation.ImportReport, error) {
	if s.store == nil {
		return nil, nil, ErrNoStore
	}
	snap, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	return s.Import(&snap.Document)
}

// ListSnapshots lists stored snapshots matching the filter.
func (s *LayoutService) ListSnapshots(ctx context.Context, filter layout.Filter) ([]*layout.Snapshot, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	return s.store.List(ctx, filter)
}

// DeleteSnapshot removes a stored snapshot.
func (s *LayoutService) DeleteSnapshot(ctx context.Context, id string) error {
	if s.store == nil {
		return ErrNoStore
	}
	return s.store.Delete(ctx, id)
}
