package services

import (
	"sort"

	"github.com/signalflow/signalflow/internal/core/graph"
	"github.com/signalflow/signalflow/internal/core/route"
)

// Canvas describes the drawing surface node positions are projected onto.
// Positions are normalized, so the canvas supplies the pixel scale and the
// size of one node box.
type Canvas struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	BoxWidth  float64 `json:"boxWidth"`
	BoxHeight float64 `json:"boxHeight"`
}

// DefaultCanvas matches a typical editor viewport.
var DefaultCanvas = Canvas{Width: 1280, Height: 800, BoxWidth: 160, BoxHeight: 80}

// EdgePath is one drawable edge: the connection plus the obstacle-avoiding
// path computed for the current node positions.
type EdgePath struct {
	From string     `json:"from"`
	To   string     `json:"to"`
	Path route.Path `json:"path"`
}

// EdgePaths projects every positioned node onto the canvas and routes each
// edge around the other node boxes. Edges whose endpoints carry no position
// are skipped; results are ordered by edge key for deterministic output.
func EdgePaths(g *graph.Graph, canvas Canvas) []EdgePath {
	if canvas.Width <= 0 || canvas.Height <= 0 {
		canvas = DefaultCanvas
	}

	boxes := nodeBoxes(g, canvas)
	obstacles := make([]route.Rect, 0, len(boxes))
	ids := make([]string, 0, len(boxes))
	for id := range boxes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		obstacles = append(obstacles, boxes[id])
	}

	var paths []EdgePath
	for _, e := range g.Edges() {
		from, ok := boxes[boxID(g, e.From)]
		if !ok {
			continue
		}
		to, ok := boxes[boxID(g, e.To)]
		if !ok {
			continue
		}
		start := route.Point{X: from.X + from.Width, Y: from.Y + from.Height/2}
		end := route.Point{X: to.X, Y: to.Y + to.Height/2}
		exclude := map[string]bool{from.ID: true, to.ID: true}

		paths = append(paths, EdgePath{
			From: e.From,
			To:   e.To,
			Path: route.Route(start, end, obstacles, exclude),
		})
	}

	sort.Slice(paths, func(i, j int) bool {
		if paths[i].From != paths[j].From {
			return paths[i].From < paths[j].From
		}
		return paths[i].To < paths[j].To
	})
	return paths
}

// nodeBoxes maps every positioned node to its pixel rectangle.
func nodeBoxes(g *graph.Graph, canvas Canvas) map[string]route.Rect {
	boxes := make(map[string]route.Rect)
	for id, pos := range g.Positions() {
		boxes[id] = route.Rect{
			ID:     id,
			X:      pos.Left * (canvas.Width - canvas.BoxWidth),
			Y:      pos.Top * (canvas.Height - canvas.BoxHeight),
			Width:  canvas.BoxWidth,
			Height: canvas.BoxHeight,
		}
	}
	return boxes
}

// boxID maps an edge endpoint (node or instance id) to the positioned node.
func boxID(g *graph.Graph, id string) string {
	if owner, ok := g.Owner(id); ok {
		return owner
	}
	return id
}
