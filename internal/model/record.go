package model

import (
	"errors"
	"fmt"
)

// Mode errors.
var (
	// ErrInvalidMode is returned when the mode string is neither "info"
	// nor "changes". An invalid mode is a fatal startup error.
	ErrInvalidMode = errors.New("invalid mode: must be \"info\" or \"changes\"")
)

// Mode selects which endpoint the mirror consumes and how records are
// persisted. The two modes are mutually exclusive; one mirror process
// serves exactly one mode per storage root.
type Mode string

const (
	// ModeInfo mirrors full CVE records. Records are overwritten in place
	// (<path>.json, last write wins) and external references are archived.
	ModeInfo Mode = "info"
	// ModeChanges mirrors CVE change-history events. Records are appended
	// to a per-identifier log (<path>.jsonl) and references are not fetched.
	ModeChanges Mode = "changes"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeInfo, ModeChanges:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidMode, s)
	}
}

// String returns the mode as a string.
func (m Mode) String() string { return string(m) }

// TimestampLayout is the timestamp format used for the persisted watermark
// and for delta-window query parameters. It matches the extended ISO-8601
// form the NVD API emits in record bodies (no zone offset, millisecond
// precision); dates without an offset are interpreted as local time on
// both sides, like the original crawler.
const TimestampLayout = "2006-01-02T15:04:05.000"

// Record is one entity fetched from the remote source: a full CVE record
// in info mode or a change event in changes mode. The remote schema is
// deliberately not modeled; the record round-trips as generic JSON so the
// persisted file preserves every field the source sent. Typed accessors
// below extract only the fields the mirror consumes.
type Record map[string]any

// envelopeKey returns the top-level object key holding the mode-specific
// payload ("cve" for info records, "change" for change events).
func envelopeKey(mode Mode) string {
	if mode == ModeChanges {
		return "change"
	}
	return "cve"
}

// payload returns the mode-specific nested object.
func (r Record) payload(mode Mode) (map[string]any, error) {
	key := envelopeKey(mode)
	inner, ok := r[key].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record has no %q object", key)
	}
	return inner, nil
}

// Identifier returns the record's identifier string from the mode-specific
// field path: cve.id in info mode, change.cveId in changes mode.
func (r Record) Identifier(mode Mode) (string, error) {
	inner, err := r.payload(mode)
	if err != nil {
		return "", err
	}

	field := "id"
	if mode == ModeChanges {
		field = "cveId"
	}
	id, ok := inner[field].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("record has no %s.%s field", envelopeKey(mode), field)
	}
	return id, nil
}

// Timestamp returns the record's own modification/creation timestamp:
// cve.lastModified in info mode, change.created in changes mode. The
// incremental updater advances the watermark to this value rather than
// to wall-clock time so a window sorted by source time leaves no gap.
func (r Record) Timestamp(mode Mode) (string, error) {
	inner, err := r.payload(mode)
	if err != nil {
		return "", err
	}

	field := "lastModified"
	if mode == ModeChanges {
		field = "created"
	}
	ts, ok := inner[field].(string)
	if !ok || ts == "" {
		return "", fmt.Errorf("record has no %s.%s field", envelopeKey(mode), field)
	}
	return ts, nil
}

// ReferenceURLs returns the external reference URLs of an info record,
// in source order. Entries without a url field are skipped.
func (r Record) ReferenceURLs() ([]string, error) {
	inner, err := r.payload(ModeInfo)
	if err != nil {
		return nil, err
	}

	rawRefs, ok := inner["references"].([]any)
	if !ok {
		return nil, errors.New("record has no cve.references array")
	}

	urls := make([]string, 0, len(rawRefs))
	for _, raw := range rawRefs {
		ref, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if u, ok := ref["url"].(string); ok && u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// AttachReferences stores archived reference entries on an info record
// under cve.added_references so they are persisted alongside the record.
// Attaching to a record without a cve object is a no-op; the record is
// still persisted without archived references.
func (r Record) AttachReferences(entries []ReferenceEntry) {
	inner, err := r.payload(ModeInfo)
	if err != nil {
		return
	}
	inner["added_references"] = entries
}
