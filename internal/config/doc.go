// Package config provides configuration structures and utilities for
// cvemirror. It defines the crawl pacing, retry and storage options,
// their documented defaults, and the optional .cvemirror YAML file that
// overrides them.
package config
