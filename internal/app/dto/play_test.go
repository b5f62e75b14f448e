package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayRequest_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   PlayRequest
		want PlayRequest
		err  error
	}{
		{
			name: "zero value gets defaults",
			in:   PlayRequest{},
			want: PlayRequest{Cols: DefaultCols, Rows: DefaultRows, Offset: GridOffset(DefaultOffset)},
		},
		{
			name: "explicit values kept",
			in:   PlayRequest{Cols: 30, Rows: 20, Offset: GridOffset(2)},
			want: PlayRequest{Cols: 30, Rows: 20, Offset: GridOffset(2)},
		},
		{
			name: "explicit zero margin kept",
			in:   PlayRequest{Cols: 30, Rows: 20, Offset: GridOffset(0)},
			want: PlayRequest{Cols: 30, Rows: 20, Offset: GridOffset(0)},
		},
		{
			name: "negative dimension",
			in:   PlayRequest{Cols: -1, Rows: 16, Offset: GridOffset(3)},
			err:  ErrInvalidGrid,
		},
		{
			name: "negative offset",
			in:   PlayRequest{Cols: 24, Rows: 16, Offset: GridOffset(-1)},
			err:  ErrInvalidGrid,
		},
		{
			name: "offset swallows the grid",
			in:   PlayRequest{Cols: 6, Rows: 16, Offset: GridOffset(3)},
			err:  ErrInvalidGrid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Normalize()
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.in)
		})
	}
}

func TestPlayRequest_Grid(t *testing.T) {
	req := PlayRequest{Cols: 24, Rows: 16, Offset: GridOffset(3)}
	grid := req.Grid()
	assert.Equal(t, 24, grid.Cols)
	assert.Equal(t, 16, grid.Rows)
	assert.Equal(t, 3, grid.Offset)

	// Unset margin falls back to the default; explicit zero sticks.
	assert.Equal(t, DefaultOffset, (&PlayRequest{Cols: 24, Rows: 16}).Grid().Offset)
	assert.Equal(t, 0, (&PlayRequest{Cols: 24, Rows: 16, Offset: GridOffset(0)}).Grid().Offset)
}
