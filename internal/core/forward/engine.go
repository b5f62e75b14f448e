// Package forward turns the graph's static edge set into live push
// subscriptions while the dashboard is playing. One engine instance
// exclusively owns its subscription table; subscriptions never outlive one
// play/stop cycle.
package forward

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/signalflow/signalflow/internal/core/graph"
	imetrics "github.com/signalflow/signalflow/internal/infrastructure/metrics"
)

// Sample is one sample record: channel key ("ch0", "ch1", ...) to value.
type Sample map[string]float64

// Unsubscribe tears one subscription down. Implementations must be safe to
// call more than once.
type Unsubscribe func()

// Provider is the external sample/publish collaborator the engine forwards
// through.
type Provider interface {
	// SubscribeSamples delivers every incoming sample batch to fn.
	SubscribeSamples(fn func(batch []Sample)) Unsubscribe
	// SubscribeOutputs delivers value batches published under sourceID to fn.
	SubscribeOutputs(sourceID string, fn func(values []float64)) Unsubscribe
	// Publish pushes a value batch to subscribers of targetID.
	Publish(targetID string, values []float64)
}

// Engine mirrors the current edge set as push subscriptions. It has two
// states, stopped and running; Start is an idempotent restart and Stop is a
// no-op when already stopped.
type Engine struct {
	mu       sync.Mutex
	graph    *graph.Graph
	provider Provider
	logger   *log.Logger
	subs     map[string]Unsubscribe
	running  bool
}

// NewEngine creates a stopped engine forwarding the graph's edges through the
// provider.
func NewEngine(g *graph.Graph, provider Provider) *Engine {
	return &Engine{
		graph:    g,
		provider: provider,
		logger:   log.Default(),
		subs:     make(map[string]Unsubscribe),
	}
}

// WithLogger overrides the engine's logger.
func (e *Engine) WithLogger(logger *log.Logger) *Engine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Start builds one forwarding subscription per edge. Channel-sourced edges
// are grouped per channel: exactly one sample-batch subscription per distinct
// channel fans its latest value out to all current targets. Other sources are
// resolved against the materialized instance ids (exact match first, then
// same-kind prefix) and get one output subscription per resolved publisher.
// If already running, Start stops first.
func (e *Engine) Start(materialized []string) error {
	if e.provider == nil {
		return ErrNilProvider
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		e.stopLocked()
	}

	channelTargets := make(map[string][]string)
	var rest []graph.Edge
	for _, edge := range e.graph.Edges() {
		if kind, ok := e.graph.KindOf(edge.From); ok && kind == graph.KindChannel {
			channel := e.channelNodeID(edge.From)
			channelTargets[channel] = append(channelTargets[channel], edge.To)
			continue
		}
		rest = append(rest, edge)
	}

	for _, channel := range sortedKeys(channelTargets) {
		e.subscribeChannelLocked(channel, channelTargets[channel])
	}
	for _, edge := range rest {
		e.subscribeOutputsLocked(edge, materialized)
	}

	e.running = true
	imetrics.SetForwardRoutes(len(e.subs))
	return nil
}

// subscribeChannelLocked wires one sample-batch subscription fanning the
// channel's latest value out to every target.
func (e *Engine) subscribeChannelLocked(channel string, targets []string) {
	key := e.sampleKey(channel)
	unsub := e.provider.SubscribeSamples(func(batch []Sample) {
		value, ok := latestValue(batch, key)
		if !ok {
			return
		}
		for _, target := range targets {
			e.deliver(channel, target, []float64{value})
		}
		imetrics.SamplesForwarded(channel, int64(len(targets)))
	})
	// The shared handle is registered under every edge key so the
	// subscription table mirrors the edge set; tearing it down more than
	// once is safe by the Unsubscribe contract.
	for _, target := range targets {
		k := channel + "=>" + target
		if _, exists := e.subs[k]; exists {
			continue
		}
		e.subs[k] = unsub
	}
}

// subscribeOutputsLocked wires output subscriptions for one non-channel edge,
// one per resolved publisher instance.
func (e *Engine) subscribeOutputsLocked(edge graph.Edge, materialized []string) {
	target := edge.To
	for _, publisher := range resolvePublishers(edge.From, materialized) {
		k := publisher + "=>" + target
		if _, exists := e.subs[k]; exists {
			continue
		}
		pub := publisher
		e.subs[k] = e.provider.SubscribeOutputs(pub, func(values []float64) {
			e.deliver(pub, target, values)
			imetrics.OutputsForwarded(pub, 1)
		})
	}
}

// deliver pushes one value batch to a target, recovering any callback
// failure so no single failing sink can break other forwards.
func (e *Engine) deliver(source, target string, values []float64) {
	defer func() {
		if r := recover(); r != nil {
			imetrics.IncForwardErrors()
			e.logger.Debug("forward callback failed", "source", source, "target", target, "err", fmt.Sprint(r))
		}
	}()
	e.provider.Publish(target, values)
}

// Stop invokes every stored unsubscribe handle and clears state. Safe to call
// when already stopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	for _, unsub := range e.subs {
		unsub()
	}
	e.subs = make(map[string]Unsubscribe)
	e.running = false
	imetrics.SetForwardRoutes(0)
}

// Running reports whether the engine currently holds live subscriptions.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SubscriptionKeys returns the current "source=>target" keys, sorted.
func (e *Engine) SubscriptionKeys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	keys := make([]string, 0, len(e.subs))
	for k := range e.subs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// channelNodeID maps a channel node or instance id to its node id.
func (e *Engine) channelNodeID(id string) string {
	if owner, ok := e.graph.Owner(id); ok {
		return owner
	}
	return id
}

// sampleKey returns the sample-batch key ("ch0", "ch1", ...) the channel
// reads, taken from its config index.
func (e *Engine) sampleKey(channel string) string {
	if node, ok := e.graph.Node(channel); ok {
		if cfg, ok := node.Config.(graph.ChannelConfig); ok {
			return fmt.Sprintf("ch%d", cfg.Index)
		}
	}
	return "ch0"
}

// latestValue returns the channel key's value from the last sample in the
// batch that carries it.
func latestValue(batch []Sample, key string) (float64, bool) {
	for i := len(batch) - 1; i >= 0; i-- {
		if v, ok := batch[i][key]; ok {
			return v, true
		}
	}
	return 0, false
}

// resolvePublishers maps a source id to the materialized publisher instances
// currently standing in for it: the exact id when materialized, else every
// materialized instance sharing the source's kind prefix, else the source id
// itself as an opaque publisher.
func resolvePublishers(source string, materialized []string) []string {
	for _, id := range materialized {
		if id == source {
			return []string{source}
		}
	}
	prefix := kindPrefix(source)
	var matches []string
	for _, id := range materialized {
		if kindPrefix(id) == prefix {
			matches = append(matches, id)
		}
	}
	if len(matches) > 0 {
		sort.Strings(matches)
		return matches
	}
	return []string{source}
}

func kindPrefix(id string) string {
	if i := strings.IndexByte(id, '-'); i >= 0 {
		return id[:i]
	}
	return id
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
