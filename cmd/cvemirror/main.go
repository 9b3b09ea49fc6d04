// Package main provides the entry point for the cvemirror CLI.
//
// cvemirror maintains a local mirror of the NVD vulnerability database.
// It performs a resumable bulk catch-up crawl and then keeps the mirror
// current with periodic incremental updates.
//
// Usage:
//
//	cvemirror mirror --mode info
//	cvemirror status
//
// See --help for all available options.
package main

// main is the entry point for cvemirror.
func main() {
	Execute()
}
