package prebuilt

import (
	"errors"
	"fmt"

	"github.com/signalflow/signalflow/internal/core/graph"
)

// ErrNoChannels rejects a dashboard build with no input channels.
var ErrNoChannels = errors.New("dashboard needs at least one channel")

// PlotDashboard builds the simplest live view: one plot node with one
// instance per channel, each channel wired straight to its own instance.
func PlotDashboard(channels int) (*graph.Graph, error) {
	g, chs, err := withChannels(channels)
	if err != nil {
		return nil, err
	}

	plotID, err := g.AddNode(graph.KindPlot, nil)
	if err != nil {
		return nil, err
	}
	instances, err := growInstances(g, plotID, channels)
	if err != nil {
		return nil, err
	}
	for i, ch := range chs {
		if err := g.Connect(ch, instances[i]); err != nil {
			return nil, fmt.Errorf("wire %s: %w", ch, err)
		}
	}
	return g, nil
}

// FFTDashboard builds a spectral view: each channel runs through its own FFT
// node into a dedicated plot instance.
func FFTDashboard(channels int) (*graph.Graph, error) {
	g, chs, err := withChannels(channels)
	if err != nil {
		return nil, err
	}

	plotID, err := g.AddNode(graph.KindPlot, nil)
	if err != nil {
		return nil, err
	}
	instances, err := growInstances(g, plotID, channels)
	if err != nil {
		return nil, err
	}
	for i, ch := range chs {
		fftID, err := g.AddNode(graph.KindFFT, nil)
		if err != nil {
			return nil, err
		}
		if err := g.Connect(ch, fftID); err != nil {
			return nil, fmt.Errorf("wire %s: %w", ch, err)
		}
		if err := g.Connect(fftID, instances[i]); err != nil {
			return nil, fmt.Errorf("wire %s: %w", fftID, err)
		}
	}
	return g, nil
}

// BandpowerDashboard builds a band power summary: each channel runs through
// an envelope into its own band power node, all feeding one spiderplot.
func BandpowerDashboard(channels int) (*graph.Graph, error) {
	g, chs, err := withChannels(channels)
	if err != nil {
		return nil, err
	}

	spiderID, err := g.AddNode(graph.KindSpiderplot, nil)
	if err != nil {
		return nil, err
	}

	for _, ch := range chs {
		envID, err := g.AddNode(graph.KindEnvelope, nil)
		if err != nil {
			return nil, err
		}
		if err := g.Connect(ch, envID); err != nil {
			return nil, fmt.Errorf("wire %s: %w", ch, err)
		}
		if err := g.Connect(envID, string(graph.KindBandpower)); err != nil {
			return nil, fmt.Errorf("wire %s: %w", envID, err)
		}
	}

	for _, node := range g.Nodes() {
		if node.Kind != graph.KindBandpower {
			continue
		}
		if err := g.Connect(node.ID, spiderID); err != nil {
			return nil, fmt.Errorf("wire %s: %w", node.ID, err)
		}
	}
	return g, nil
}

// withChannels creates a graph pre-populated with the requested channels.
func withChannels(channels int) (*graph.Graph, []string, error) {
	if channels < 1 {
		return nil, nil, ErrNoChannels
	}
	g := graph.NewGraph()
	ids := make([]string, channels)
	for i := range ids {
		id, err := g.AddNode(graph.KindChannel, nil)
		if err != nil {
			return nil, nil, err
		}
		ids[i] = id
	}
	return g, ids, nil
}

// growInstances tops a multi-instance node up to the wanted count, returning
// all instance ids in order.
func growInstances(g *graph.Graph, nodeID string, want int) ([]string, error) {
	node, ok := g.Node(nodeID)
	if !ok {
		return nil, graph.ErrNodeNotFound
	}
	for len(node.Instances) < want {
		if _, err := g.AddInstance(nodeID); err != nil {
			return nil, err
		}
	}
	return append([]string(nil), node.Instances...), nil
}
