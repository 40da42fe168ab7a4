// Package database manages the state database connection.
//
// The tracker keeps all durable state (collection counts, pending deltas,
// metadata cache, singleton state rows) in a single GORM-managed database.
// The default backend is an embedded SQLite file in the tracker data
// directory, opened in WAL mode so concurrent read-only consumers do not
// block the daemon's writes. MySQL remains available for deployments that
// centralize state in a shared server.
package database
