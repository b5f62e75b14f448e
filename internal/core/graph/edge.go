package graph

// Edge represents a directed connection between two nodes or instances. From
// and To hold node ids or globally addressable instance ids.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Validate ensures edge integrity.
func (e *Edge) Validate() error {
	if e.From == "" {
		return ErrInvalidEdgeSource
	}
	if e.To == "" {
		return ErrInvalidEdgeTarget
	}
	if e.From == e.To {
		return ErrSelfLoop
	}
	return nil
}

// Key returns the canonical identity of the edge used for duplicate checks
// and forwarding-subscription keys.
func (e *Edge) Key() string {
	return e.From + "=>" + e.To
}

// Touches reports whether the edge references id on either end.
func (e *Edge) Touches(id string) bool {
	return e.From == id || e.To == id
}
