// Package lifecycle drives the entity state machine: active entities decay
// over time, fall below the cleanup threshold and are purged, or go stale
// and are archived to the persistent medium, from where they can be restored
// on demand.
//
// Every operation is invoked explicitly by calling code; the package runs no
// timers of its own, which keeps sweeps deterministic under an injected
// clock.
package lifecycle
