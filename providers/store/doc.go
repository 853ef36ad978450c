// Package store defines the persistence contract for stories and comics.
// Implementations live in subpackages: [inmemory] for tests and ephemeral
// runs, [sqlite] for the on-disk database.
package store
