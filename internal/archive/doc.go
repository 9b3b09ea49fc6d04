// Package archive fetches and persists the external documents referenced
// by a CVE record.
//
// Archiving is strictly best-effort: a slow, missing or broken reference
// host must never abort ingestion of the parent record. Every URL
// resolves to a typed entry (inline text, side-file path, HTTP status,
// or error marker) and the caller persists whatever came back.
//
// Classification follows content type and size: textual bodies under the
// inline limit are stored inside the record, larger textual bodies go to
// a <record>-<n>.txt side file, and binary bodies always go to a
// <record>-<n> side file. The side-file counter only advances when a
// side file is actually created.
package archive
