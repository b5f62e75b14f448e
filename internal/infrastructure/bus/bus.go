// Package bus provides the in-memory sample/publish broker used while a
// dashboard is playing: an ordered sample-batch stream fanned out to
// subscribers plus per-source output topics.
package bus

import (
	"sync"

	"github.com/signalflow/signalflow/internal/core/forward"
	imetrics "github.com/signalflow/signalflow/internal/infrastructure/metrics"
)

// Broker is a thread-safe fan-out broker with no message history. Listener
// failures are recovered per-listener so one failing subscriber never blocks
// the rest of a batch. Unsubscribe handles are safe to call more than once.
type Broker struct {
	mu         sync.RWMutex
	nextID     int64
	sampleSubs map[int64]func([]forward.Sample)
	outputSubs map[string]map[int64]func([]float64)
	closed     bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		sampleSubs: make(map[int64]func([]forward.Sample)),
		outputSubs: make(map[string]map[int64]func([]float64)),
	}
}

// SubscribeSamples registers a listener for incoming sample batches.
func (b *Broker) SubscribeSamples(fn func(batch []forward.Sample)) forward.Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := b.nextID
	b.nextID++
	b.sampleSubs[id] = fn
	imetrics.SetBusListeners(b.listenerCountLocked())
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.sampleSubs, id)
		imetrics.SetBusListeners(b.listenerCountLocked())
	}
}

// EmitSamples delivers one ordered sample batch to every sample listener.
// Within the batch, each listener is served completely before the next.
func (b *Broker) EmitSamples(batch []forward.Sample) {
	b.mu.RLock()
	fns := make([]func([]forward.Sample), 0, len(b.sampleSubs))
	for _, fn := range b.sampleSubs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		call(func() { fn(batch) })
	}
}

// SubscribeOutputs registers a listener for value batches published under
// sourceID.
func (b *Broker) SubscribeOutputs(sourceID string, fn func(values []float64)) forward.Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := b.nextID
	b.nextID++
	if b.outputSubs[sourceID] == nil {
		b.outputSubs[sourceID] = make(map[int64]func([]float64))
	}
	b.outputSubs[sourceID][id] = fn
	imetrics.SetBusListeners(b.listenerCountLocked())
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.outputSubs[sourceID]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.outputSubs, sourceID)
			}
		}
		imetrics.SetBusListeners(b.listenerCountLocked())
	}
}

// Publish pushes a value batch to every subscriber of targetID. Unknown
// targets are a silent no-op.
func (b *Broker) Publish(targetID string, values []float64) {
	b.mu.RLock()
	fns := make([]func([]float64), 0, len(b.outputSubs[targetID]))
	for _, fn := range b.outputSubs[targetID] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		call(func() { fn(values) })
	}
	imetrics.BusPublished(targetID, 1)
}

// Close drops all listeners. Further subscriptions return no-op handles.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.sampleSubs = make(map[int64]func([]forward.Sample))
	b.outputSubs = make(map[string]map[int64]func([]float64))
	imetrics.SetBusListeners(0)
}

// ListenerCount returns the current number of registered listeners.
func (b *Broker) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.listenerCountLocked()
}

func (b *Broker) listenerCountLocked() int {
	n := len(b.sampleSubs)
	for _, subs := range b.outputSubs {
		n += len(subs)
	}
	return n
}

// call runs fn, recovering a panic so one listener cannot break the rest.
func call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			imetrics.IncForwardErrors()
		}
	}()
	fn()
}
