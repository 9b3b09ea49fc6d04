package model

import "encoding/json"

// ReferenceKind classifies how a reference URL was resolved.
type ReferenceKind int

const (
	// ReferenceFailed indicates the request errored or timed out.
	ReferenceFailed ReferenceKind = iota
	// ReferenceInline indicates a small textual body stored inline.
	ReferenceInline
	// ReferenceArchived indicates the body was streamed to a side file.
	ReferenceArchived
	// ReferenceStatus indicates a non-200 response; only the code is kept.
	ReferenceStatus
)

// String returns the kind name used in the catalog and reports.
func (k ReferenceKind) String() string {
	switch k {
	case ReferenceInline:
		return "inline"
	case ReferenceArchived:
		return "archived"
	case ReferenceStatus:
		return "status"
	default:
		return "failed"
	}
}

// fetchErrorMarker is the placeholder value persisted when a reference
// request failed. Kept byte-compatible with the original crawler's output.
const fetchErrorMarker = "Error with the request"

// ReferenceEntry is the typed result of resolving one reference URL.
// Exactly one of Text, Path or StatusCode is meaningful, selected by Kind.
// Archiving failures never surface as errors; they become ReferenceFailed
// entries so the owning record is always persisted.
type ReferenceEntry struct {
	// URL is the reference URL as it appeared in the record.
	URL string
	// Kind selects which of the remaining fields carries the value.
	Kind ReferenceKind
	// Text is the inline body for ReferenceInline entries.
	Text string
	// Path is the side-file location for ReferenceArchived entries.
	Path string
	// StatusCode is the HTTP status for ReferenceStatus entries.
	StatusCode int
}

// InlineReference creates an entry holding a small textual body.
func InlineReference(url, text string) ReferenceEntry {
	return ReferenceEntry{URL: url, Kind: ReferenceInline, Text: text}
}

// ArchivedReference creates an entry pointing at a side file.
func ArchivedReference(url, path string) ReferenceEntry {
	return ReferenceEntry{URL: url, Kind: ReferenceArchived, Path: path}
}

// StatusReference creates an entry holding a non-200 status code.
func StatusReference(url string, code int) ReferenceEntry {
	return ReferenceEntry{URL: url, Kind: ReferenceStatus, StatusCode: code}
}

// FailedReference creates an entry marking a request error or timeout.
func FailedReference(url string) ReferenceEntry {
	return ReferenceEntry{URL: url, Kind: ReferenceFailed}
}

// Value returns the resolved value: inline text, side-file path, status
// code, or the error marker.
func (e ReferenceEntry) Value() any {
	switch e.Kind {
	case ReferenceInline:
		return e.Text
	case ReferenceArchived:
		return e.Path
	case ReferenceStatus:
		return e.StatusCode
	default:
		return fetchErrorMarker
	}
}

// MarshalJSON renders the entry as a two-element [url, value] array,
// the shape the original crawler persisted under added_references.
func (e ReferenceEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.URL, e.Value()})
}
