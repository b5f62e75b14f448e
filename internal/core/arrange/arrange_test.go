package arrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalflow/signalflow/internal/core/graph"
)

func TestArrange_TwoPlotsOnOffsetGrid(t *testing.T) {
	g := graph.NewGraph()
	ch0, _ := g.AddNode(graph.KindChannel, nil)
	ch1, _ := g.AddNode(graph.KindChannel, nil)
	plot0, _ := g.AddNode(graph.KindPlot, nil)
	plot1, _ := g.AddNode(graph.KindPlot, nil)
	require.NoError(t, g.Connect(ch0, plot0))
	require.NoError(t, g.Connect(ch1, plot1))

	tiles := Arrange(g, Grid{Cols: 24, Rows: 16, Offset: 3})
	require.Len(t, tiles, 2)

	// Two tiles side by side covering columns 3-23 and rows 3-15.
	assert.Equal(t, Tile{ID: plot0, X: 3, Y: 3, Width: 11, Height: 13, Kind: graph.KindPlot}, tiles[0])
	assert.Equal(t, Tile{ID: plot1, X: 14, Y: 3, Width: 10, Height: 13, Kind: graph.KindPlot}, tiles[1])
	assert.Equal(t, 24, tiles[1].X+tiles[1].Width)
	assert.Equal(t, 16, tiles[0].Y+tiles[0].Height)
}

func TestArrange_RoutedChannelsExcluded(t *testing.T) {
	g := graph.NewGraph()
	ch, _ := g.AddNode(graph.KindChannel, nil)
	fft, _ := g.AddNode(graph.KindFFT, nil)
	require.NoError(t, g.Connect(ch, fft))

	tiles := Arrange(g, Grid{Cols: 12, Rows: 12})
	require.Len(t, tiles, 1)
	assert.Equal(t, fft, tiles[0].ID)
}

func TestArrange_RoutedThroughPassThrough(t *testing.T) {
	g := graph.NewGraph()
	ch, _ := g.AddNode(graph.KindChannel, nil)
	filter, _ := g.AddNode(graph.KindFilter, nil)
	fft, _ := g.AddNode(graph.KindFFT, nil)
	require.NoError(t, g.Connect(ch, filter))
	require.NoError(t, g.Connect(filter, fft))

	tiles := Arrange(g, Grid{Cols: 12, Rows: 12})
	require.Len(t, tiles, 1)
	assert.Equal(t, fft, tiles[0].ID)

	// The filter never materializes even though it is wired.
	for _, tile := range tiles {
		assert.NotEqual(t, filter, tile.ID)
	}
}

func TestArrange_UnroutedChannelMaterializes(t *testing.T) {
	g := graph.NewGraph()
	ch, _ := g.AddNode(graph.KindChannel, nil)

	tiles := Arrange(g, Grid{Cols: 8, Rows: 8})
	require.Len(t, tiles, 1)
	assert.Equal(t, ch, tiles[0].ID)
	assert.Equal(t, graph.KindChannel, tiles[0].Kind)
}

func TestArrange_PlotInstancesCollapse(t *testing.T) {
	g := graph.NewGraph()
	plot, _ := g.AddNode(graph.KindPlot, nil)
	_, err := g.AddInstance(plot)
	require.NoError(t, err)
	_, err = g.AddInstance(plot)
	require.NoError(t, err)

	tiles := Arrange(g, Grid{Cols: 10, Rows: 10})
	require.Len(t, tiles, 1)
	assert.Equal(t, plot, tiles[0].ID)
}

func TestArrange_ExactCoverage(t *testing.T) {
	tests := []struct {
		name  string
		sinks int
		grid  Grid
	}{
		{"one tile", 1, Grid{Cols: 7, Rows: 5}},
		{"three with short column", 3, Grid{Cols: 24, Rows: 16, Offset: 3}},
		{"four on square", 4, Grid{Cols: 10, Rows: 10}},
		{"five on wide grid", 5, Grid{Cols: 18, Rows: 12}},
		{"six on wide grid", 6, Grid{Cols: 18, Rows: 12}},
		{"six with offset", 6, Grid{Cols: 24, Rows: 16, Offset: 3}},
		{"seven on square", 7, Grid{Cols: 20, Rows: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.NewGraph()
			for i := 0; i < tt.sinks; i++ {
				_, err := g.AddNode(graph.KindFFT, nil)
				require.NoError(t, err)
			}

			tiles := Arrange(g, tt.grid)
			require.Len(t, tiles, tt.sinks)
			assertExactCoverage(t, tiles, tt.grid)
		})
	}
}

// assertExactCoverage checks zero overlap and that every cell of the
// available region is covered exactly once, by painting cells.
func assertExactCoverage(t *testing.T, tiles []Tile, grid Grid) {
	t.Helper()
	availCols, availRows := grid.Available()
	painted := make(map[[2]int]int)
	for _, tile := range tiles {
		assert.GreaterOrEqual(t, tile.X, grid.Offset)
		assert.GreaterOrEqual(t, tile.Y, grid.Offset)
		assert.LessOrEqual(t, tile.X+tile.Width, grid.Cols)
		assert.LessOrEqual(t, tile.Y+tile.Height, grid.Rows)
		for x := tile.X; x < tile.X+tile.Width; x++ {
			for y := tile.Y; y < tile.Y+tile.Height; y++ {
				painted[[2]int{x, y}]++
			}
		}
	}
	for cell, count := range painted {
		assert.Equal(t, 1, count, "cell %v painted %d times", cell, count)
	}
	assert.Len(t, painted, availCols*availRows, "available region not exactly covered")
}

func TestArrange_ShortColumnSpansFullHeight(t *testing.T) {
	g := graph.NewGraph()
	for i := 0; i < 3; i++ {
		_, err := g.AddNode(graph.KindFFT, nil)
		require.NoError(t, err)
	}

	grid := Grid{Cols: 24, Rows: 16, Offset: 3}
	tiles := Arrange(g, grid)
	require.Len(t, tiles, 3)

	// Two columns of 11 and 10 cells; the first holds two tiles, the
	// second holds the lone third tile stretched over all 13 rows.
	assert.Equal(t, Tile{ID: tiles[0].ID, X: 3, Y: 3, Width: 11, Height: 7, Kind: graph.KindFFT}, tiles[0])
	assert.Equal(t, Tile{ID: tiles[1].ID, X: 3, Y: 10, Width: 11, Height: 6, Kind: graph.KindFFT}, tiles[1])
	assert.Equal(t, Tile{ID: tiles[2].ID, X: 14, Y: 3, Width: 10, Height: 13, Kind: graph.KindFFT}, tiles[2])
	assertExactCoverage(t, tiles, grid)
}

func TestArrange_Deterministic(t *testing.T) {
	g := graph.NewGraph()
	_, _ = g.AddNode(graph.KindFFT, nil)
	_, _ = g.AddNode(graph.KindSpiderplot, nil)
	_, _ = g.AddNode(graph.KindCandle, nil)
	grid := Grid{Cols: 20, Rows: 12, Offset: 1}

	first := Arrange(g, grid)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Arrange(g, grid))
	}
}

func TestArrange_EmptyAndInvalid(t *testing.T) {
	t.Run("empty graph", func(t *testing.T) {
		assert.Nil(t, Arrange(graph.NewGraph(), Grid{Cols: 10, Rows: 10}))
	})

	t.Run("degenerate grid", func(t *testing.T) {
		g := graph.NewGraph()
		_, _ = g.AddNode(graph.KindFFT, nil)
		assert.Nil(t, Arrange(g, Grid{Cols: 3, Rows: 3, Offset: 3}))
	})
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		total int
		count int
		want  []int
	}{
		{"even", 10, 2, []int{5, 5}},
		{"remainder to first", 21, 2, []int{11, 10}},
		{"more slots than remainder", 13, 4, []int{4, 3, 3, 3}},
		{"single slot", 9, 1, []int{9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := split(tt.total, tt.count)
			assert.Equal(t, tt.want, got)
			sum := 0
			for _, v := range got {
				sum += v
			}
			assert.Equal(t, tt.total, sum)
		})
	}
}
