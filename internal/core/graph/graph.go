package graph

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultMaxInstances caps the total number of instances a graph may hold
// across all multi-instance nodes.
const DefaultMaxInstances = 10

// Graph owns the flow-graph state: nodes, instances, edges, and normalized
// layout positions. All mutations validate structural invariants up front and
// reject without applying partial changes. The instance registry maps every
// instance id to its owning node so id resolution is a direct lookup rather
// than string parsing.
type Graph struct {
	mu           sync.RWMutex
	nodes        map[string]*Node
	edges        []*Edge
	positions    map[string]Position
	owners       map[string]string // instance id -> owning node id
	kindSeq      map[NodeKind]int
	instSeq      map[string]int
	maxInstances int
}

// NewGraph creates an empty graph with the default instance cap.
func NewGraph() *Graph {
	return NewGraphWithLimit(DefaultMaxInstances)
}

// NewGraphWithLimit creates an empty graph capping total instances at limit.
func NewGraphWithLimit(limit int) *Graph {
	if limit <= 0 {
		limit = DefaultMaxInstances
	}
	return &Graph{
		nodes:        make(map[string]*Node),
		positions:    make(map[string]Position),
		owners:       make(map[string]string),
		kindSeq:      make(map[NodeKind]int),
		instSeq:      make(map[string]int),
		maxInstances: limit,
	}
}

// AddNode creates a node of the given kind with a generated unique id
// ("channel-0", "plot-1", ...). A nil config uses the kind's defaults.
// Multi-instance kinds are seeded with exactly one instance.
func (g *Graph) AddNode(kind NodeKind, config NodeConfig) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addNodeLocked(kind, config)
}

func (g *Graph) addNodeLocked(kind NodeKind, config NodeConfig) (string, error) {
	if !kind.Valid() {
		return "", ErrInvalidNodeKind
	}
	seq := g.kindSeq[kind]
	if config == nil {
		config = DefaultConfig(kind)
	}
	if config.ConfigKind() != kind {
		return "", ErrConfigKindMismatch
	}
	// Channels default their sample key index to the creation sequence so
	// channel-N reads chN unless configured otherwise.
	if cc, ok := config.(ChannelConfig); ok && cc.Index == 0 {
		cc.Index = seq
		config = cc
	}
	now := time.Now()
	node := &Node{
		ID:        fmt.Sprintf("%s-%d", kind, seq),
		Kind:      kind,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.kindSeq[kind] = seq + 1
	g.nodes[node.ID] = node
	if kind.MultiInstance() {
		g.seedInstanceLocked(node)
	}
	return node.ID, nil
}

func (g *Graph) seedInstanceLocked(node *Node) string {
	id := fmt.Sprintf("%s-%d", node.ID, g.instSeq[node.ID])
	g.instSeq[node.ID]++
	node.Instances = append(node.Instances, id)
	node.UpdatedAt = time.Now()
	g.owners[id] = node.ID
	return id
}

// AddInstance appends an instance to a multi-instance node. It is rejected
// with ErrLimitExceeded once the graph-wide instance cap is reached.
func (g *Graph) AddInstance(nodeID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[nodeID]
	if !ok {
		return "", fmt.Errorf("add instance: %w: %s", ErrNodeNotFound, nodeID)
	}
	if !node.Kind.MultiInstance() {
		return "", fmt.Errorf("add instance: %w: %s", ErrNotMultiInstance, node.Kind)
	}
	if len(g.owners) >= g.maxInstances {
		return "", fmt.Errorf("add instance: %w: max %d", ErrLimitExceeded, g.maxInstances)
	}
	return g.seedInstanceLocked(node), nil
}

// RemoveInstance removes an instance and cascades edge and position cleanup.
// Removing the last instance of a plot node is rejected with
// ErrInvariantViolation.
func (g *Graph) RemoveInstance(nodeID, instanceID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[nodeID]
	if !ok {
		return fmt.Errorf("remove instance: %w: %s", ErrNodeNotFound, nodeID)
	}
	if !node.HasInstance(instanceID) {
		return fmt.Errorf("remove instance: %w: %s", ErrInstanceNotFound, instanceID)
	}
	if node.Kind == KindPlot && len(node.Instances) == 1 {
		return fmt.Errorf("remove instance: %w: plot keeps at least one instance", ErrInvariantViolation)
	}

	kept := node.Instances[:0]
	for _, inst := range node.Instances {
		if inst != instanceID {
			kept = append(kept, inst)
		}
	}
	node.Instances = kept
	node.UpdatedAt = time.Now()
	delete(g.owners, instanceID)
	g.dropReferencesLocked(map[string]bool{instanceID: true})
	return nil
}

// RemoveNode removes a node, all of its instances, every edge referencing any
// of them, and their layout positions.
func (g *Graph) RemoveNode(nodeID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	node, ok := g.nodes[nodeID]
	if !ok {
		return fmt.Errorf("remove node: %w: %s", ErrNodeNotFound, nodeID)
	}

	gone := map[string]bool{nodeID: true}
	for _, inst := range node.Instances {
		gone[inst] = true
		delete(g.owners, inst)
	}
	delete(g.nodes, nodeID)
	delete(g.instSeq, nodeID)
	g.dropReferencesLocked(gone)
	return nil
}

// dropReferencesLocked removes edges touching any of the given ids and their
// layout positions.
func (g *Graph) dropReferencesLocked(gone map[string]bool) {
	kept := g.edges[:0]
	for _, e := range g.edges {
		if gone[e.From] || gone[e.To] {
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	for id := range gone {
		delete(g.positions, id)
	}
}

// Connect is the primary validation and edge-creation entry point.
//
// Connecting to the type-level bandpower id ("bandpower") auto-instantiates
// one bandpower node per distinct terminal source implied by from, because
// bandpower semantics require single-channel inputs. Connecting to an
// existing bandpower node that already has an incoming edge is rejected with
// ErrConstraintViolation. An identical existing edge makes Connect a no-op.
func (g *Graph) Connect(from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e := &Edge{From: from, To: to}
	if err := e.Validate(); err != nil {
		return err
	}
	if !g.existsLocked(from) {
		return fmt.Errorf("connect: %w: %s", ErrNodeNotFound, from)
	}
	if to == string(KindBandpower) {
		return g.connectBandpowerLocked(from)
	}
	if !g.existsLocked(to) {
		return fmt.Errorf("connect: %w: %s", ErrNodeNotFound, to)
	}
	if target := g.ownerNodeLocked(to); target != nil && target.Kind == KindBandpower {
		if len(g.edgesIntoLocked(to)) > 0 {
			return fmt.Errorf("connect: %w: bandpower %s already has an input", ErrConstraintViolation, to)
		}
	}
	for _, existing := range g.edges {
		if existing.From == from && existing.To == to {
			return nil // idempotent
		}
	}
	g.edges = append(g.edges, e)
	return nil
}

// connectBandpowerLocked fans a connection to the type-level bandpower id out
// to one fresh bandpower node per distinct terminal source implied by from.
func (g *Graph) connectBandpowerLocked(from string) error {
	sources := g.impliedSourcesLocked(from)
	for _, src := range sources {
		id, err := g.addNodeLocked(KindBandpower, nil)
		if err != nil {
			return err
		}
		g.edges = append(g.edges, &Edge{From: src, To: id})
	}
	return nil
}

// impliedSourcesLocked returns the terminal sources a connection drawn from
// the given id stands for. An id that resolves upstream to one or more
// terminal sources (a pass-through node or an aggregating sink) fans out to
// those; anything else is its own single source.
func (g *Graph) impliedSourcesLocked(from string) []string {
	if resolved := g.resolveSourcesLocked(from, make(map[string]bool)); len(resolved) > 0 {
		return resolved
	}
	return []string{from}
}

func (g *Graph) existsLocked(id string) bool {
	if _, ok := g.nodes[id]; ok {
		return true
	}
	_, ok := g.owners[id]
	return ok
}

// ownerNodeLocked resolves id to its node: either the node itself or the
// owner of the instance.
func (g *Graph) ownerNodeLocked(id string) *Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	if owner, ok := g.owners[id]; ok {
		return g.nodes[owner]
	}
	return nil
}

func (g *Graph) edgesIntoLocked(target string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.To == target {
			out = append(out, *e)
		}
	}
	return out
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// KindOf resolves a node or instance id to its node kind.
func (g *Graph) KindOf(id string) (NodeKind, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if n := g.ownerNodeLocked(id); n != nil {
		return n.Kind, true
	}
	return "", false
}

// Owner returns the owning node id of an instance.
func (g *Graph) Owner(instanceID string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	owner, ok := g.owners[instanceID]
	return owner, ok
}

// Exists reports whether id names a live node or instance.
func (g *Graph) Exists(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.existsLocked(id)
}

// Nodes returns all nodes sorted by id.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns a snapshot copy of the edge set.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, *e)
	}
	return out
}

// EdgesInto returns the edges whose target is exactly the given id.
func (g *Graph) EdgesInto(target string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edgesIntoLocked(target)
}

// SetPosition stores a normalized layout position for a node or instance,
// clamped to the unit square.
func (g *Graph) SetPosition(id string, pos Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.existsLocked(id) {
		return fmt.Errorf("set position: %w: %s", ErrNodeNotFound, id)
	}
	g.positions[id] = pos.Clamp()
	return nil
}

// PositionOf returns the stored position for a node or instance.
func (g *Graph) PositionOf(id string) (Position, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	pos, ok := g.positions[id]
	return pos, ok
}

// Positions returns a snapshot copy of all stored positions.
func (g *Graph) Positions() map[string]Position {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]Position, len(g.positions))
	for id, pos := range g.positions {
		out[id] = pos
	}
	return out
}

// InstanceCount returns the total number of instances across the graph.
func (g *Graph) InstanceCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.owners)
}

// ChannelCount returns the number of channel nodes.
func (g *Graph) ChannelCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	count := 0
	for _, n := range g.nodes {
		if n.Kind == KindChannel {
			count++
		}
	}
	return count
}
