// Package log provides logging utilities for cvemirror, built on top of
// the standard slog package.
//
// The RedactHandler masks NVD API keys before records reach the
// underlying handler. The mirror itself runs unauthenticated, but
// operators commonly point it at keyed proxy URLs or add an apiKey
// query parameter; those values must not end up in logs that get
// shared or stored.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Info("requesting page",
//	    "url", "https://example.com/cves/2.0?apiKey=secret", // masked
//	)
//	slog.SetDefault(logger)
package log
