// Package store is the durable Request Store: it persists stage requests
// and their per-file rows in an embedded SQLite database and exposes the
// queries the rest of the core needs (spec.md section 4.3).
//
// # Single writer, many readers
//
// Mutations never touch the database directly. Every write-shaped call is
// wrapped in a function and handed to a single writer goroutine through a
// command channel; the goroutine owns the one writable connection and runs
// each command inside its own transaction, committing on success and
// rolling back on error. This mirrors
// original_source/storm-tape2/src/db/db_writer.cpp's DbWriter actor: one
// thread, one connection, FIFO queue; every store method waits for its
// command's result (there is no fire-and-forget entry point).
// Reads run concurrently against a small pool of reader connections and
// never wait on the writer except when a read query is itself routed
// through the writer for exclusivity (TakeRecallable, see below).
//
// The underlying database is opened with WAL journaling, synchronous
// NORMAL, and a five second busy-timeout, matching the reference writer's
// pragmas.
//
// # Locality-aware queries
//
// CountRecallable and TakeRecallable need more than the stored state: a
// file only counts as recallable once its physical path is confirmed not
// already in progress on disk, and TakeRecallable further restricts to
// files whose Locality is tape or lost. Both therefore take a
// probe.Prober dependency and consult it per candidate row.
// TakeRecallable additionally runs through the writer so that two
// concurrent take-over rounds can never select overlapping paths.
//
// TODO: no automatic expiry. A stage whose files are all terminal stays
// in the database until an explicit delete; a periodic sweep of stages
// with completed_at older than a retention window would need its own
// ticker goroutine alongside the writer.
package store
