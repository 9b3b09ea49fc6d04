// Package model defines the domain types shared across cvemirror.
// It covers CVE identifiers, the raw record envelope fetched from the
// remote source, archived reference entries, and the mirror status
// snapshot rendered by the status command.
package model
