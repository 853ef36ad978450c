// Package sqlite implements [store.Store] on an SQLite database through the
// pure-Go modernc.org/sqlite driver. [Open] creates the parent directory,
// applies pragmas and ensures the schema.
package sqlite
