// Package crawler drives the mirror's ingestion loops.
//
// # Architecture
//
//   - Engine: the bulk catch-up crawl. Pages through the remote source
//     from a resumable cursor, checkpointing the cursor to disk before
//     each request so a crash resumes at the same offset.
//   - Updater: the periodic delta fetch. Requests everything modified
//     since the persisted watermark and advances the watermark only
//     after the window was fully persisted.
//   - Scheduler: runs the Engine once at startup, then loops forever
//     over sleep-and-update cycles.
//
// # Failure semantics
//
// Remote failures are retried per page with a constant backoff; a page
// that keeps failing is quarantined into the missing-indexes log and
// skipped permanently rather than stalling the crawl. The failure
// counter is per page, so a skip only happens after sustained failure
// on one specific offset. Local persistence failures are never retried:
// they abort the enclosing batch.
//
// The whole package is single-threaded; every suspension point is an
// explicit timed wait, and stopping the process at any point is safe
// because the cursor and watermark files are written before the network
// calls that depend on them.
package crawler
