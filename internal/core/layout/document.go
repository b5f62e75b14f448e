// Package layout defines the persisted dashboard layout format and the
// snapshot entities stored by the layout repositories.
package layout

import "time"

// Document is the persisted layout: the full flow graph plus its drawing
// state, saved as a timestamped plain document and re-imported with per-entry
// validation.
type Document struct {
	Nodes          []NodeDocument      `json:"flowOptions"`
	Connections    []Connection        `json:"connections"`
	ModalPositions map[string]Position `json:"modalPositions,omitempty"`
	GridSettings   GridSettings        `json:"gridSettings"`
	ChannelCount   int                 `json:"channelCount"`
	ExportedAt     time.Time           `json:"exportedAt,omitempty"`
}

// NodeDocument is one persisted node. Config is kept as a generic map in the
// document and decoded to the kind's concrete config shape on import.
type NodeDocument struct {
	ID        string                 `json:"id" validate:"required,flow_id"`
	Kind      string                 `json:"kind" validate:"required,node_kind"`
	Config    map[string]interface{} `json:"config,omitempty"`
	Instances []string               `json:"instances,omitempty"`
}

// Connection is one persisted edge.
type Connection struct {
	From string `json:"from" validate:"required,flow_id"`
	To   string `json:"to" validate:"required,flow_id"`
}

// Position is a persisted normalized layout position.
type Position struct {
	Left float64 `json:"left" validate:"min=0,max=1"`
	Top  float64 `json:"top" validate:"min=0,max=1"`
}

// GridSettings describes the dashboard grid the layout was saved against.
type GridSettings struct {
	Cols       int `json:"cols" validate:"required,min=1"`
	Rows       int `json:"rows" validate:"required,min=1"`
	CellWidth  int `json:"cellWidth,omitempty"`
	CellHeight int `json:"cellHeight,omitempty"`
}
