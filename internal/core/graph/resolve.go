package graph

import (
	"sort"
	"strings"
)

// ResolveSources walks the graph backward from a sink to its effective
// terminal sources. Filter and envelope nodes are transparent: they never
// appear in the result, their own incoming edges are resolved instead.
// Channels and unknown ids are terminal. The result is a deterministic sorted
// set, and the function is a pure read of current graph state.
//
// An edge matches the target in three tiers: the edge target equals targetID
// exactly; targetID extends the edge target as "<to>-<suffix>" (a user-drawn
// edge may name a node while the materialized instance carries a more
// specific id); or the edge target equals the target's base-kind identifier.
func (g *Graph) ResolveSources(targetID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.resolveSourcesLocked(targetID, make(map[string]bool))
}

func (g *Graph) resolveSourcesLocked(targetID string, visiting map[string]bool) []string {
	if visiting[targetID] {
		return nil
	}
	visiting[targetID] = true

	set := make(map[string]bool)
	for _, e := range g.edges {
		if !g.edgeMatchesTargetLocked(e, targetID) {
			continue
		}
		source := g.ownerNodeLocked(e.From)
		switch {
		case source == nil:
			// Opaque external id, terminal as-is.
			set[e.From] = true
		case source.Kind == KindChannel:
			set[e.From] = true
		case source.Kind.PassThrough():
			for _, src := range g.resolveSourcesLocked(e.From, visiting) {
				set[src] = true
			}
		default:
			set[e.From] = true
		}
	}

	out := make([]string, 0, len(set))
	for src := range set {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}

func (g *Graph) edgeMatchesTargetLocked(e *Edge, targetID string) bool {
	if e.To == targetID {
		return true
	}
	if strings.HasPrefix(targetID, e.To+"-") {
		return true
	}
	if n := g.ownerNodeLocked(targetID); n != nil && e.To == string(n.Kind) {
		return true
	}
	return false
}
