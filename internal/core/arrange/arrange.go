// Package arrange converts a flow graph's materializable sink instances into
// a tiled dashboard: non-overlapping integer tiles exactly covering the
// designated sub-rectangle of a bounded grid. Arrangement is deterministic
// for a given graph and grid.
package arrange

import (
	"math"

	"github.com/signalflow/signalflow/internal/core/graph"
)

// Grid describes the dashboard surface. Offset reserves a margin of cells on
// the left and top edges; tiles fill the remaining (Cols-Offset) x
// (Rows-Offset) region starting at (Offset, Offset).
type Grid struct {
	Cols   int `json:"cols"`
	Rows   int `json:"rows"`
	Offset int `json:"offset,omitempty"`
}

// Available returns the usable width and height in cells.
func (g Grid) Available() (cols, rows int) {
	return g.Cols - g.Offset, g.Rows - g.Offset
}

// Valid reports whether the grid has a usable placement region.
func (g Grid) Valid() bool {
	cols, rows := g.Available()
	return g.Offset >= 0 && cols > 0 && rows > 0
}

// Tile is one materialized dashboard cell region.
type Tile struct {
	ID     string         `json:"id"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Kind   graph.NodeKind `json:"kind"`
}

// Arrange lays the graph's materializable instances out on the grid.
//
// Sink kinds always materialize. Channels materialize as raw signal tiles
// only when not already routed into a sink. A plot node's instances collapse
// into a single multiplexed tile per node. Tiles are placed column-major with
// the integer remainder of the division spread one cell at a time across the
// first columns and rows; each column divides the full available height among
// the tiles it actually holds, so the tile union covers the available region
// exactly even when the last column is short.
func Arrange(g *graph.Graph, grid Grid) []Tile {
	if !grid.Valid() {
		return nil
	}
	entries := materializable(g)
	n := len(entries)
	if n == 0 {
		return nil
	}

	availCols, availRows := grid.Available()
	cols := nearSquareCols(n, availCols, availRows)
	rows := (n + cols - 1) / cols

	widths := split(availCols, cols)
	xs := offsets(grid.Offset, widths)

	tiles := make([]Tile, 0, n)
	i := 0
	for col := 0; col < cols; col++ {
		// A short final column splits the full height across its own
		// tiles, so the union still covers the available region exactly.
		count := rows
		if left := n - i; left < count {
			count = left
		}
		heights := split(availRows, count)
		ys := offsets(grid.Offset, heights)
		for row := 0; row < count; row++ {
			entry := entries[i]
			t := Tile{
				ID:     entry.id,
				X:      xs[col],
				Y:      ys[row],
				Width:  widths[col],
				Height: heights[row],
				Kind:   entry.kind,
			}
			// Clamp so no tile exceeds the grid bounds.
			if t.X+t.Width > grid.Cols {
				t.Width = grid.Cols - t.X
			}
			if t.Y+t.Height > grid.Rows {
				t.Height = grid.Rows - t.Y
			}
			tiles = append(tiles, t)
			i++
		}
	}
	return tiles
}

type entry struct {
	id   string
	kind graph.NodeKind
}

// materializable returns the tile entries for the graph in node-id order:
// sink instances, collapsed plots, and unrouted channels.
func materializable(g *graph.Graph) []entry {
	routed := routedChannels(g)

	var entries []entry
	for _, n := range g.Nodes() {
		switch {
		case n.Kind.PassThrough():
			continue
		case n.Kind == graph.KindChannel:
			if !routed[n.ID] {
				entries = append(entries, entry{id: n.ID, kind: n.Kind})
			}
		case n.Kind == graph.KindPlot:
			// All instances of one plot node multiplex into a single tile.
			entries = append(entries, entry{id: n.ID, kind: n.Kind})
		case n.Kind.Sink():
			entries = append(entries, entry{id: n.ID, kind: n.Kind})
		}
	}
	return entries
}

// routedChannels marks every channel whose resolved downstream includes a
// materializable sink: for each edge into a sink, the sink's resolved sources
// are routed.
func routedChannels(g *graph.Graph) map[string]bool {
	routed := make(map[string]bool)
	for _, e := range g.Edges() {
		kind, ok := g.KindOf(e.To)
		if !ok || !kind.Sink() {
			continue
		}
		for _, src := range g.ResolveSources(e.To) {
			if owner, ok := g.Owner(src); ok {
				routed[owner] = true
			}
			routed[src] = true
		}
	}
	return routed
}

// nearSquareCols computes round(sqrt(n*availCols/availRows)) clamped to
// [1, n].
func nearSquareCols(n, availCols, availRows int) int {
	cols := int(math.Round(math.Sqrt(float64(n) * float64(availCols) / float64(availRows))))
	if cols < 1 {
		cols = 1
	}
	if cols > n {
		cols = n
	}
	return cols
}

// split divides total cells among count slots with the remainder distributed
// one cell at a time to the first slots, so the parts sum to total exactly.
func split(total, count int) []int {
	base := total / count
	rem := total % count
	parts := make([]int, count)
	for i := range parts {
		parts[i] = base
		if i < rem {
			parts[i]++
		}
	}
	return parts
}

// offsets returns the cumulative start position of each slot.
func offsets(start int, sizes []int) []int {
	out := make([]int, len(sizes))
	pos := start
	for i, size := range sizes {
		out[i] = pos
		pos += size
	}
	return out
}
