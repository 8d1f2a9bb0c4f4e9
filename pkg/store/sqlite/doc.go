// Package sqlite provides a store.Store backed by SQLite through the
// ncruces/go-sqlite3 database/sql driver, which embeds SQLite as WebAssembly
// and needs no cgo.
//
//	s, err := sqlite.Open(ctx, "/var/lib/recordpipe/records.db")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
// SQLITE_BUSY and SQLITE_LOCKED surface as retryable PERSISTENCE errors.
package sqlite
