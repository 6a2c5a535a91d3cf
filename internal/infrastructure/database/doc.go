// Package database manages the SQLite connection for AirFleet Core.
//
// It provides:
//   - Connection lifecycle (open, health check, close)
//   - WAL mode and busy-timeout pragmas for concurrent access
//   - Versioned schema migrations embedded in the binary
//
// SQLite supports a single writer, so the connection pool is capped at one
// open connection. The registry serialises writes above this layer; the
// busy timeout covers the rest.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: "./data/airfleet.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
