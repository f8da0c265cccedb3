// Package lifecycle implements the Lifecycle Engine (spec.md section 4.4):
// on every observation it brings a Stage's file rows into agreement with
// what the filesystem shows right now and writes the diff back through the
// Request Store.
//
// # Per-file transition table
//
// For each file (terminal ones too, though the table never changes them),
// a fresh probe.Status is consulted for
// exactly two facts: is-in-progress and is-stub (which folds in
// fs-existence: a probe error resolving either fact means the underlying
// path is gone or unreadable). The table:
//
//	current    in-progress  on-disk            next
//	submitted  true         —                  started   (started_at = now)
//	submitted  false        true               completed (started_at = finished_at = now)
//	submitted  false        error              failed    (started_at = finished_at = now)
//	submitted  false        false (stub)       no change — still waiting on tape
//	started    true         —                  no change
//	started    false        true               completed (finished_at = now)
//	started    false        error              failed    (finished_at = now)
//	started    false        false (stub)       no change
//	completed/cancelled/failed                  no change
//
// A plain stub with no probe error is the expected "still on tape" state
// and is never mistaken for a failure; only a genuine probe error (the
// path vanished, a permission error, and so on) drives a file to failed.
//
// # Executors
//
// Engine delegates the per-file probing to an Executor so that probing a
// Stage's files sequentially or across a worker pool produces identical
// diffs — SequentialExecutor and ParallelExecutor are interchangeable (spec.md section 9,
// "Parallelism of probes").
package lifecycle
