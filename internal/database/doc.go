// Package database provides the SQLite catalog for cvemirror.
//
// The catalog is a queryable index over what the mirror has done:
//   - records: every identifier seen, with its on-disk path and hash
//   - runs: every bulk catch-up and delta cycle
//   - reference_entries: the outcome of every reference-archiving attempt
//
// The mirror's correctness never depends on it; the authoritative state
// lives in the storage root's files. The catalog exists for the status
// command and for operators asking "what happened" without walking the
// record tree.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for a single sequential writer
// 4. WAL mode provides good concurrent read performance
package database
