package forward

import (
	"expvar"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalflow/signalflow/internal/core/graph"
)

// fakeProvider records subscriptions and publishes for assertions.
type fakeProvider struct {
	mu          sync.Mutex
	nextID      int
	sampleSubs  map[int]func([]Sample)
	outputSubs  map[string]map[int]func([]float64)
	published   map[string][][]float64
	publishHook func(target string)
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		sampleSubs: make(map[int]func([]Sample)),
		outputSubs: make(map[string]map[int]func([]float64)),
		published:  make(map[string][][]float64),
	}
}

func (p *fakeProvider) SubscribeSamples(fn func([]Sample)) Unsubscribe {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.sampleSubs[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.sampleSubs, id)
	}
}

func (p *fakeProvider) SubscribeOutputs(sourceID string, fn func([]float64)) Unsubscribe {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	if p.outputSubs[sourceID] == nil {
		p.outputSubs[sourceID] = make(map[int]func([]float64))
	}
	p.outputSubs[sourceID][id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.outputSubs[sourceID], id)
	}
}

func (p *fakeProvider) Publish(target string, values []float64) {
	if p.publishHook != nil {
		p.publishHook(target)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published[target] = append(p.published[target], values)
}

func (p *fakeProvider) emit(batch []Sample) {
	p.mu.Lock()
	fns := make([]func([]Sample), 0, len(p.sampleSubs))
	for _, fn := range p.sampleSubs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(batch)
	}
}

func (p *fakeProvider) emitOutputs(sourceID string, values []float64) {
	p.mu.Lock()
	fns := make([]func([]float64), 0, len(p.outputSubs[sourceID]))
	for _, fn := range p.outputSubs[sourceID] {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(values)
	}
}

func (p *fakeProvider) sampleSubCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sampleSubs)
}

func (p *fakeProvider) deliveries(target string) [][]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published[target]
}

func TestEngine_ChannelFanOut(t *testing.T) {
	g := graph.NewGraph()
	ch, _ := g.AddNode(graph.KindChannel, nil)
	fft, _ := g.AddNode(graph.KindFFT, nil)
	spider, _ := g.AddNode(graph.KindSpiderplot, nil)
	require.NoError(t, g.Connect(ch, fft))
	require.NoError(t, g.Connect(ch, spider))

	p := newFakeProvider()
	e := NewEngine(g, p)
	require.NoError(t, e.Start([]string{fft, spider}))

	t.Run("one sample subscription for k targets", func(t *testing.T) {
		assert.Equal(t, 1, p.sampleSubCount())
		assert.Len(t, e.SubscriptionKeys(), 2)
	})

	t.Run("route gauge counts edge keys", func(t *testing.T) {
		gauge := expvar.Get("signalflow_forward_routes").(*expvar.Int)
		assert.Equal(t, int64(2), gauge.Value())
	})

	t.Run("latest value fans out to every target", func(t *testing.T) {
		p.emit([]Sample{{"ch0": 1.0}, {"ch0": 2.5}})

		require.Len(t, p.deliveries(fft), 1)
		require.Len(t, p.deliveries(spider), 1)
		assert.Equal(t, []float64{2.5}, p.deliveries(fft)[0])
		assert.Equal(t, []float64{2.5}, p.deliveries(spider)[0])
	})

	t.Run("batch without the channel key is skipped", func(t *testing.T) {
		before := len(p.deliveries(fft))
		p.emit([]Sample{{"ch7": 9.0}})
		assert.Len(t, p.deliveries(fft), before)
	})

	e.Stop()
	gauge := expvar.Get("signalflow_forward_routes").(*expvar.Int)
	assert.Equal(t, int64(0), gauge.Value())
}

func TestEngine_SampleKeyFollowsChannelIndex(t *testing.T) {
	g := graph.NewGraph()
	_, _ = g.AddNode(graph.KindChannel, nil) // channel-0 / ch0
	ch1, _ := g.AddNode(graph.KindChannel, nil)
	fft, _ := g.AddNode(graph.KindFFT, nil)
	require.NoError(t, g.Connect(ch1, fft))

	p := newFakeProvider()
	e := NewEngine(g, p)
	require.NoError(t, e.Start([]string{fft}))
	defer e.Stop()

	p.emit([]Sample{{"ch0": 1.0, "ch1": 4.0}})
	require.Len(t, p.deliveries(fft), 1)
	assert.Equal(t, []float64{4.0}, p.deliveries(fft)[0])
}

func TestEngine_RestartIsIdempotent(t *testing.T) {
	g := graph.NewGraph()
	ch, _ := g.AddNode(graph.KindChannel, nil)
	fft, _ := g.AddNode(graph.KindFFT, nil)
	require.NoError(t, g.Connect(ch, fft))

	p := newFakeProvider()
	e := NewEngine(g, p)
	require.NoError(t, e.Start([]string{fft}))
	require.NoError(t, e.Start([]string{fft}))
	defer e.Stop()

	assert.Equal(t, 1, p.sampleSubCount(), "restart must not leak subscriptions")
	assert.True(t, e.Running())
}

func TestEngine_StopTearsDown(t *testing.T) {
	g := graph.NewGraph()
	ch, _ := g.AddNode(graph.KindChannel, nil)
	fft, _ := g.AddNode(graph.KindFFT, nil)
	require.NoError(t, g.Connect(ch, fft))

	p := newFakeProvider()
	e := NewEngine(g, p)
	require.NoError(t, e.Start([]string{fft}))
	e.Stop()

	assert.Equal(t, 0, p.sampleSubCount())
	assert.False(t, e.Running())
	assert.Empty(t, e.SubscriptionKeys())

	p.emit([]Sample{{"ch0": 3.0}})
	assert.Empty(t, p.deliveries(fft))

	assert.NotPanics(t, e.Stop, "stop when stopped is a no-op")
}

func TestEngine_CallbackFailureIsolated(t *testing.T) {
	g := graph.NewGraph()
	ch, _ := g.AddNode(graph.KindChannel, nil)
	fft, _ := g.AddNode(graph.KindFFT, nil)
	spider, _ := g.AddNode(graph.KindSpiderplot, nil)
	require.NoError(t, g.Connect(ch, fft))
	require.NoError(t, g.Connect(ch, spider))

	p := newFakeProvider()
	p.publishHook = func(target string) {
		if target == fft {
			panic("sink exploded")
		}
	}
	e := NewEngine(g, p)
	require.NoError(t, e.Start([]string{fft, spider}))
	defer e.Stop()

	assert.NotPanics(t, func() { p.emit([]Sample{{"ch0": 1.0}}) })
	assert.Len(t, p.deliveries(spider), 1, "healthy sink still receives")
}

func TestEngine_OutputForwarding(t *testing.T) {
	t.Run("exact publisher match", func(t *testing.T) {
		g := graph.NewGraph()
		fft, _ := g.AddNode(graph.KindFFT, nil)
		candle, _ := g.AddNode(graph.KindCandle, nil)
		require.NoError(t, g.Connect(fft, candle))

		p := newFakeProvider()
		e := NewEngine(g, p)
		require.NoError(t, e.Start([]string{fft, candle}))
		defer e.Stop()

		assert.Equal(t, []string{fft + "=>" + candle}, e.SubscriptionKeys())
		p.emitOutputs(fft, []float64{1, 2, 3})
		require.Len(t, p.deliveries(candle), 1)
		assert.Equal(t, []float64{1, 2, 3}, p.deliveries(candle)[0])
	})

	t.Run("kind-prefix match across materialized instances", func(t *testing.T) {
		g := graph.NewGraph()
		f0, _ := g.AddNode(graph.KindFFT, nil)
		f1, _ := g.AddNode(graph.KindFFT, nil)
		candle, _ := g.AddNode(graph.KindCandle, nil)
		require.NoError(t, g.RemoveNode(f0))
		require.NoError(t, g.Connect(f1, candle))

		p := newFakeProvider()
		e := NewEngine(g, p)
		// f1 is not materialized under its own id; both fft tiles stand in.
		require.NoError(t, e.Start([]string{"fft-4", "fft-5", candle}))
		defer e.Stop()

		keys := e.SubscriptionKeys()
		assert.Equal(t, []string{"fft-4=>" + candle, "fft-5=>" + candle}, keys)
	})

	t.Run("opaque source subscribes as-is", func(t *testing.T) {
		g := graph.NewGraph()
		env, _ := g.AddNode(graph.KindEnvelope, nil)
		fft, _ := g.AddNode(graph.KindFFT, nil)
		require.NoError(t, g.Connect(env, fft))

		p := newFakeProvider()
		e := NewEngine(g, p)
		require.NoError(t, e.Start([]string{fft}))
		defer e.Stop()

		p.emitOutputs(env, []float64{0.5})
		require.Len(t, p.deliveries(fft), 1)
	})
}

func TestEngine_NilProvider(t *testing.T) {
	g := graph.NewGraph()
	e := NewEngine(g, nil)
	assert.ErrorIs(t, e.Start(nil), ErrNilProvider)
}
