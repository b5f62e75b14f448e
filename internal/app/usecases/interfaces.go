// Package usecases orchestrates the core engines behind the application's
// operations. Dependencies are taken as interfaces so transports and tests
// can substitute their own.
package usecases

import (
	"github.com/signalflow/signalflow/internal/core/arrange"
	"github.com/signalflow/signalflow/internal/core/graph"
)

// Forwarder starts and stops live forwarding for a set of materialized tiles.
type Forwarder interface {
	Start(materialized []string) error
	Stop()
	Running() bool
	SubscriptionKeys() []string
}

// Arranger tiles a graph's materializable items onto a presentation grid.
type Arranger func(g *graph.Graph, grid arrange.Grid) []arrange.Tile
