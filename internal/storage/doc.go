// Package storage persists mirror artifacts under a single storage root.
//
// This package implements three concerns:
//   - Resolver: deterministic identifier-to-path derivation
//   - Store: record persistence (overwrite .json or append .jsonl)
//   - State: the crash-resume files (.index.txt, .last_timestamp.txt,
//     missing_indexes.txt)
//
// The cursor file and the missing-indexes log are the only state needed
// to resume a bulk crawl after a crash; the watermark file is the only
// state needed to resume incremental updates. All state writes are
// flushed (write, sync, close) before the next network call that depends
// on them.
package storage
