package metrics

import (
	"expvar"
)

// Forwarding metrics (counters/gauges) using expvar maps keyed by source id.
var (
	samplesForwarded = expvar.NewMap("signalflow_samples_forwarded_total")
	outputsForwarded = expvar.NewMap("signalflow_outputs_forwarded_total")
	forwardErrors    = new(expvar.Int)
	forwardRoutes    = new(expvar.Int)
)

// Bus metrics.
var (
	busPublished = expvar.NewMap("signalflow_bus_published_total")
	busListeners = new(expvar.Int)
)

// Import metrics.
var (
	importSkipped = new(expvar.Int)
)

func init() {
	expvar.Publish("signalflow_forward_errors_total", forwardErrors)
	expvar.Publish("signalflow_forward_routes", forwardRoutes)
	expvar.Publish("signalflow_bus_listeners", busListeners)
	expvar.Publish("signalflow_import_skipped_total", importSkipped)
}

// Forwarding helpers
func SamplesForwarded(channel string, n int64) { samplesForwarded.Add(channel, n) }
func OutputsForwarded(source string, n int64)  { outputsForwarded.Add(source, n) }
func IncForwardErrors()                        { forwardErrors.Add(1) }
func SetForwardRoutes(n int)                   { forwardRoutes.Set(int64(n)) }

// Bus helpers
func BusPublished(target string, n int64) { busPublished.Add(target, n) }
func SetBusListeners(n int)               { busListeners.Set(int64(n)) }

// Import helpers
func AddImportSkipped(n int) { importSkipped.Add(int64(n)) }
