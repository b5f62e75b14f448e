package usecases

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/signalflow/signalflow/internal/app/dto"
	"github.com/signalflow/signalflow/internal/core/arrange"
	"github.com/signalflow/signalflow/internal/core/graph"
)

// Player runs play sessions: it arranges the graph onto the requested grid
// and wires live forwarding for the tiles that came out. At most one session
// runs at a time; playing again replaces the previous session.
type Player struct {
	mu        sync.Mutex
	graph     *graph.Graph
	forwarder Forwarder
	arranger  Arranger
	logger    *log.Logger

	tiles   []arrange.Tile
	started time.Time
}

// NewPlayer creates a player over the given graph and forwarder.
func NewPlayer(g *graph.Graph, forwarder Forwarder) *Player {
	return &Player{
		graph:     g,
		forwarder: forwarder,
		arranger:  arrange.Arrange,
		logger:    log.Default(),
	}
}

// WithArranger substitutes the arrangement function.
func (p *Player) WithArranger(a Arranger) *Player {
	if a != nil {
		p.arranger = a
	}
	return p
}

// WithLogger substitutes the session logger.
func (p *Player) WithLogger(logger *log.Logger) *Player {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Play arranges the graph and starts forwarding to the resulting tiles.
func (p *Player) Play(req dto.PlayRequest) (*dto.PlayResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tiles := p.arranger(p.graph, req.Grid())
	ids := make([]string, len(tiles))
	for i, tile := range tiles {
		ids[i] = tile.ID
	}

	if err := p.forwarder.Start(ids); err != nil {
		return nil, err
	}
	p.tiles = tiles
	p.started = time.Now()
	p.logger.Info("play session started",
		"tiles", len(tiles),
		"subscriptions", len(p.forwarder.SubscriptionKeys()),
		"grid", req.Grid())

	return &dto.PlayResponse{
		Tiles:         tiles,
		Subscriptions: p.forwarder.SubscriptionKeys(),
		StartedAt:     p.started,
	}, nil
}

// Stop tears down the running session.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.forwarder.Running() {
		return dto.ErrNotPlaying
	}
	p.forwarder.Stop()
	p.logger.Info("play session stopped", "uptime", time.Since(p.started).Round(time.Millisecond))
	p.tiles = nil
	return nil
}

// Playing reports whether a session is active.
func (p *Player) Playing() bool {
	return p.forwarder.Running()
}

// Tiles returns the arrangement of the current session, nil when stopped.
func (p *Player) Tiles() []arrange.Tile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]arrange.Tile(nil), p.tiles...)
}
