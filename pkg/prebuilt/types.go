package prebuilt

import (
	"fmt"

	"github.com/signalflow/signalflow/internal/core/graph"
)

// Builder constructs a dashboard graph for a number of input channels.
// Implementations should be pure and return a graph that passes core
// validation.
type Builder interface {
	Name() string
	Build(channels int) (*graph.Graph, error)
}

// BuildFunc is a convenience adapter to implement Builder via functions.
type BuildFunc struct {
	NameStr string
	Fn      func(channels int) (*graph.Graph, error)
}

func (b BuildFunc) Name() string { return b.NameStr }
func (b BuildFunc) Build(channels int) (*graph.Graph, error) {
	return b.Fn(channels)
}

// Registry holds named prebuilts.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// Register adds or replaces a prebuilt builder.
func (r *Registry) Register(b Builder) {
	r.builders[b.Name()] = b
}

// MustRegister panics on duplicate names; useful during init() setup.
func (r *Registry) MustRegister(b Builder) {
	if _, exists := r.builders[b.Name()]; exists {
		panic(fmt.Sprintf("prebuilt already registered: %s", b.Name()))
	}
	r.builders[b.Name()] = b
}

// Get retrieves a named prebuilt.
func (r *Registry) Get(name string) (Builder, bool) {
	b, ok := r.builders[name]
	return b, ok
}

// Names lists the registered prebuilt names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry holds the built-in dashboard templates.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.MustRegister(BuildFunc{NameStr: "plot", Fn: PlotDashboard})
	DefaultRegistry.MustRegister(BuildFunc{NameStr: "fft", Fn: FFTDashboard})
	DefaultRegistry.MustRegister(BuildFunc{NameStr: "bandpower", Fn: BandpowerDashboard})
}
