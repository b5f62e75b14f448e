package graph

// Position locates a node or instance on the drawing surface, normalized to
// the unit square so it survives zoom and pixel-size changes.
type Position struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Clamp returns the position constrained to [0,1] on both axes.
func (p Position) Clamp() Position {
	return Position{Left: clamp01(p.Left), Top: clamp01(p.Top)}
}

// Valid reports whether both coordinates already lie in [0,1].
func (p Position) Valid() bool {
	return p.Left >= 0 && p.Left <= 1 && p.Top >= 0 && p.Top <= 1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
