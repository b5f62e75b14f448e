// Package signalflow is the public entry point for embedding the engine. It
// re-exports the core graph types and provides a Runtime that wires the
// default in-memory components: the live signal bus, the forwarding engine,
// the arrangement-backed player, and an in-memory snapshot store.
package signalflow
