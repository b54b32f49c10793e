// Package registry provides a generic, concurrency-safe name to value table.
// Registries are plain values owned by whoever builds them; there are no
// package-level instances.
package registry
