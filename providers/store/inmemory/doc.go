// Package inmemory provides a concurrency-safe, map-backed implementation of
// the [store.Store] interface. It is designed for tests and single-process
// runs where persistence across restarts is not required.
// The main entry point is [New].
package inmemory
