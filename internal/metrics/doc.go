// Package metrics holds the engine's in-process counters. Counters are
// plain atomics owned by the engine instance, not package-level globals.
// Exporters read snapshots.
package metrics
