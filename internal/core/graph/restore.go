package graph

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RestoreNode inserts a node with a preserved id and instance set, used when
// importing a persisted layout. The id generators are advanced past restored
// ids so later AddNode calls cannot collide. Multi-instance kinds with no
// persisted instances are seeded with one.
func (g *Graph) RestoreNode(id string, kind NodeKind, config NodeConfig, instances []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id == "" {
		return ErrInvalidNodeID
	}
	if !kind.Valid() {
		return ErrInvalidNodeKind
	}
	if _, exists := g.nodes[id]; exists {
		return fmt.Errorf("restore node: %w: %s", ErrDuplicateNode, id)
	}
	if config == nil {
		config = DefaultConfig(kind)
	}
	if config.ConfigKind() != kind {
		return ErrConfigKindMismatch
	}

	now := time.Now()
	node := &Node{ID: id, Kind: kind, Config: config, CreatedAt: now, UpdatedAt: now}
	g.nodes[id] = node
	if n := trailingSeq(id); n >= g.kindSeq[kind] {
		g.kindSeq[kind] = n + 1
	}

	for _, inst := range instances {
		node.Instances = append(node.Instances, inst)
		g.owners[inst] = id
		if n := trailingSeq(inst); n >= g.instSeq[id] {
			g.instSeq[id] = n + 1
		}
	}
	if kind.MultiInstance() && len(node.Instances) == 0 {
		g.seedInstanceLocked(node)
	}
	return nil
}

// trailingSeq extracts the numeric suffix of an id, -1 when absent.
func trailingSeq(id string) int {
	i := strings.LastIndexByte(id, '-')
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return -1
	}
	return n
}

// DecodeConfig converts a generic persisted config map into the kind's
// concrete config shape. A nil map yields the kind's defaults.
func DecodeConfig(kind NodeKind, raw map[string]interface{}) (NodeConfig, error) {
	if raw == nil {
		return DefaultConfig(kind), nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	switch kind {
	case KindChannel:
		var cfg ChannelConfig
		return decodeInto(data, kind, &cfg)
	case KindFilter:
		var cfg FilterConfig
		return decodeInto(data, kind, &cfg)
	case KindEnvelope:
		var cfg EnvelopeConfig
		return decodeInto(data, kind, &cfg)
	case KindPlot:
		var cfg PlotConfig
		return decodeInto(data, kind, &cfg)
	case KindSpiderplot:
		var cfg SpiderplotConfig
		return decodeInto(data, kind, &cfg)
	case KindFFT:
		var cfg FFTConfig
		return decodeInto(data, kind, &cfg)
	case KindBandpower:
		var cfg BandpowerConfig
		return decodeInto(data, kind, &cfg)
	case KindCandle:
		var cfg CandleConfig
		return decodeInto(data, kind, &cfg)
	}
	return nil, ErrInvalidNodeKind
}

func decodeInto(data []byte, kind NodeKind, target interface{}) (NodeConfig, error) {
	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", kind, err)
	}
	cfg, ok := derefConfig(target)
	if !ok {
		return nil, ErrConfigKindMismatch
	}
	return cfg, nil
}

func derefConfig(target interface{}) (NodeConfig, bool) {
	switch v := target.(type) {
	case *ChannelConfig:
		return *v, true
	case *FilterConfig:
		return *v, true
	case *EnvelopeConfig:
		return *v, true
	case *PlotConfig:
		return *v, true
	case *SpiderplotConfig:
		return *v, true
	case *FFTConfig:
		return *v, true
	case *BandpowerConfig:
		return *v, true
	case *CandleConfig:
		return *v, true
	}
	return nil, false
}

// EncodeConfig converts a concrete config into the generic map shape used by
// persisted documents.
func EncodeConfig(cfg NodeConfig) (map[string]interface{}, error) {
	if cfg == nil {
		return nil, nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}
