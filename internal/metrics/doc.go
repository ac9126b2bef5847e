// Package metrics exposes Prometheus instrumentation for summary runs.
//
// A [Collector] owns its own registry so tests and embedded uses never touch
// the global default registry. All recording methods are safe on a nil
// *Collector, which lets callers treat metrics as optional.
package metrics
