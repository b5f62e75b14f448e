// Package dto defines the request and response shapes exchanged with the
// application layer.
package dto

import (
	"time"

	"github.com/signalflow/signalflow/internal/core/arrange"
)

// Default presentation grid used when a play request leaves the grid unset.
const (
	DefaultCols   = 24
	DefaultRows   = 16
	DefaultOffset = 3
)

// PlayRequest describes the presentation grid a graph should be arranged on
// before forwarding starts. Zero Cols/Rows and a nil Offset fall back to the
// defaults; an explicit *Offset of 0 requests a zero-margin grid.
type PlayRequest struct {
	Cols   int  `json:"cols"`
	Rows   int  `json:"rows"`
	Offset *int `json:"offset,omitempty"`
}

// GridOffset wraps a margin value for the request's optional Offset field.
func GridOffset(n int) *int { return &n }

// Normalize fills unset fields with defaults and validates the result.
func (r *PlayRequest) Normalize() error {
	if r.Cols == 0 {
		r.Cols = DefaultCols
	}
	if r.Rows == 0 {
		r.Rows = DefaultRows
	}
	if r.Offset == nil {
		r.Offset = GridOffset(DefaultOffset)
	}
	offset := *r.Offset
	if r.Cols < 0 || r.Rows < 0 || offset < 0 {
		return ErrInvalidGrid
	}
	if r.Cols <= 2*offset || r.Rows <= 2*offset {
		return ErrInvalidGrid
	}
	return nil
}

// Grid converts the request into the arrangement engine's grid shape. A nil
// Offset maps to the default margin.
func (r *PlayRequest) Grid() arrange.Grid {
	offset := DefaultOffset
	if r.Offset != nil {
		offset = *r.Offset
	}
	return arrange.Grid{Cols: r.Cols, Rows: r.Rows, Offset: offset}
}

// PlayResponse reports the outcome of starting a play session: the tiles the
// arrangement produced and the forwarding subscriptions that were opened.
type PlayResponse struct {
	Tiles         []arrange.Tile `json:"tiles"`
	Subscriptions []string       `json:"subscriptions"`
	StartedAt     time.Time      `json:"startedAt"`
}
