// Package metrics provides operational metrics collection.
//
// Collectors are registered on a caller-supplied prometheus.Registerer so
// tests and commands own their registry. A nil *Decisions records nothing.
package metrics
