// Package graph provides the flow-graph domain entities: typed nodes,
// instances, edges, and normalized layout positions.
package graph

import "time"

// NodeKind represents the type of a flow node.
type NodeKind string

const (
	// KindChannel represents a live signal channel source.
	KindChannel NodeKind = "channel"
	// KindFilter represents a pass-through filter transform.
	KindFilter NodeKind = "filter"
	// KindEnvelope represents a pass-through envelope transform.
	KindEnvelope NodeKind = "envelope"
	// KindPlot represents a time-series plot sink.
	KindPlot NodeKind = "plot"
	// KindSpiderplot represents a spider-plot sink.
	KindSpiderplot NodeKind = "spiderplot"
	// KindFFT represents an FFT view sink.
	KindFFT NodeKind = "fft"
	// KindBandpower represents a single-channel bandpower meter sink.
	KindBandpower NodeKind = "bandpower"
	// KindCandle represents a candle-chart sink.
	KindCandle NodeKind = "candle"
)

// Kinds lists every valid node kind in a stable order.
var Kinds = []NodeKind{
	KindChannel, KindFilter, KindEnvelope, KindPlot,
	KindSpiderplot, KindFFT, KindBandpower, KindCandle,
}

// Valid reports whether k is a known node kind.
func (k NodeKind) Valid() bool {
	for _, kind := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// MultiInstance reports whether nodes of this kind may hold more than one
// connectable instance.
func (k NodeKind) MultiInstance() bool {
	return k == KindChannel || k == KindPlot
}

// PassThrough reports whether the kind is transparent to upstream-source
// resolution.
func (k NodeKind) PassThrough() bool {
	return k == KindFilter || k == KindEnvelope
}

// Sink reports whether the kind is rendered as a dashboard tile when the
// graph is played.
func (k NodeKind) Sink() bool {
	switch k {
	case KindPlot, KindSpiderplot, KindFFT, KindBandpower, KindCandle:
		return true
	}
	return false
}

// NodeConfig is the tagged union of per-kind configuration shapes. Each kind
// carries its own explicit config struct instead of an open map.
type NodeConfig interface {
	// ConfigKind returns the node kind this configuration belongs to.
	ConfigKind() NodeKind
}

// ChannelConfig configures a channel source node. Index selects the sample
// key ("ch0", "ch1", ...) the channel reads from incoming sample batches.
type ChannelConfig struct {
	Index int    `json:"index"`
	Label string `json:"label,omitempty"`
	Color string `json:"color,omitempty"`
}

func (ChannelConfig) ConfigKind() NodeKind { return KindChannel }

// FilterConfig configures a pass-through filter node.
type FilterConfig struct {
	Type       string  `json:"type"` // lowpass, highpass, bandpass, notch
	LowCutoff  float64 `json:"lowCutoff,omitempty"`
	HighCutoff float64 `json:"highCutoff,omitempty"`
	Order      int     `json:"order,omitempty"`
}

func (FilterConfig) ConfigKind() NodeKind { return KindFilter }

// EnvelopeConfig configures a pass-through envelope transform node.
type EnvelopeConfig struct {
	WindowSize int `json:"windowSize"`
}

func (EnvelopeConfig) ConfigKind() NodeKind { return KindEnvelope }

// PlotConfig configures a time-series plot sink.
type PlotConfig struct {
	WindowSeconds float64 `json:"windowSeconds,omitempty"`
	YMin          float64 `json:"yMin,omitempty"`
	YMax          float64 `json:"yMax,omitempty"`
}

func (PlotConfig) ConfigKind() NodeKind { return KindPlot }

// SpiderplotConfig configures a spider-plot sink.
type SpiderplotConfig struct {
	Axes int `json:"axes,omitempty"`
}

func (SpiderplotConfig) ConfigKind() NodeKind { return KindSpiderplot }

// FFTConfig configures an FFT view sink.
type FFTConfig struct {
	Size   int    `json:"size,omitempty"`
	Window string `json:"window,omitempty"`
}

func (FFTConfig) ConfigKind() NodeKind { return KindFFT }

// Band describes one frequency band of a bandpower meter.
type Band struct {
	Name string  `json:"name"`
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// BandpowerConfig configures a bandpower meter sink. Bandpower accepts a
// single input channel.
type BandpowerConfig struct {
	Bands []Band `json:"bands,omitempty"`
}

func (BandpowerConfig) ConfigKind() NodeKind { return KindBandpower }

// CandleConfig configures a candle-chart sink.
type CandleConfig struct {
	IntervalSeconds float64 `json:"intervalSeconds,omitempty"`
}

func (CandleConfig) ConfigKind() NodeKind { return KindCandle }

// DefaultConfig returns the default configuration for a kind.
func DefaultConfig(kind NodeKind) NodeConfig {
	switch kind {
	case KindChannel:
		return ChannelConfig{}
	case KindFilter:
		return FilterConfig{Type: "bandpass"}
	case KindEnvelope:
		return EnvelopeConfig{WindowSize: 64}
	case KindPlot:
		return PlotConfig{WindowSeconds: 5}
	case KindSpiderplot:
		return SpiderplotConfig{}
	case KindFFT:
		return FFTConfig{Size: 256}
	case KindBandpower:
		return BandpowerConfig{}
	case KindCandle:
		return CandleConfig{IntervalSeconds: 1}
	}
	return nil
}

// Node represents a typed element of the flow graph. Multi-instance kinds
// (channel, plot) hold one or more connectable instances; all other kinds are
// addressed directly by node id.
type Node struct {
	ID        string     `json:"id"`
	Kind      NodeKind   `json:"kind"`
	Config    NodeConfig `json:"config,omitempty"`
	Instances []string   `json:"instances,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Validate ensures node integrity.
func (n *Node) Validate() error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if !n.Kind.Valid() {
		return ErrInvalidNodeKind
	}
	if n.Config != nil && n.Config.ConfigKind() != n.Kind {
		return ErrConfigKindMismatch
	}
	return nil
}

// HasInstance reports whether id is one of the node's instances.
func (n *Node) HasInstance(id string) bool {
	for _, inst := range n.Instances {
		if inst == id {
			return true
		}
	}
	return false
}
