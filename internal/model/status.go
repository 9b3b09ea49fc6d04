package model

import "time"

// MirrorStatus is a point-in-time snapshot of a mirror's storage root,
// assembled by the status command and rendered by the report writers.
type MirrorStatus struct {
	// StorageRoot is the directory the snapshot describes.
	StorageRoot string `json:"storageRoot"`

	// GeneratedAt is when the snapshot was taken.
	GeneratedAt time.Time `json:"generatedAt"`

	// Cursor is the persisted bulk-crawl offset, 0 if no crawl has run.
	Cursor int `json:"cursor"`

	// Watermark is the persisted incremental-update boundary, empty if
	// the updater has not initialized one yet.
	Watermark string `json:"watermark,omitempty"`

	// MissingIndexes lists cursor values quarantined after exhausting
	// retries. These are never retried automatically.
	MissingIndexes []int `json:"missingIndexes,omitempty"`

	// RecordCount is the number of record files (.json plus .jsonl) on disk.
	RecordCount int `json:"recordCount"`

	// ReferenceFileCount is the number of archived reference side files.
	ReferenceFileCount int `json:"referenceFileCount"`

	// RecordsByYear breaks RecordCount down by year directory.
	RecordsByYear map[string]int `json:"recordsByYear,omitempty"`

	// Catalog summarizes the sqlite catalog, nil when the catalog is
	// disabled or absent.
	Catalog *CatalogSummary `json:"catalog,omitempty"`
}

// CatalogSummary aggregates the sqlite catalog for status reporting.
type CatalogSummary struct {
	// Records is the number of distinct records the catalog has seen.
	Records int `json:"records"`

	// Runs is the number of bulk/delta cycles recorded.
	Runs int `json:"runs"`

	// ReferencesByKind counts archived reference outcomes by kind name
	// (inline, archived, status, failed).
	ReferencesByKind map[string]int `json:"referencesByKind,omitempty"`

	// LastRunAt is the start time of the most recent run, if any.
	LastRunAt string `json:"lastRunAt,omitempty"`
}

// QuarantinedPages returns the number of permanently skipped pages.
func (s *MirrorStatus) QuarantinedPages() int {
	return len(s.MissingIndexes)
}
