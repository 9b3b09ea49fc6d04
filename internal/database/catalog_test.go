package database

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/cve-tools/cvemirror/internal/model"
)

// openTestCatalog opens a catalog in a temp directory.
func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()

	c, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("failed to close catalog: %v", err)
		}
	})
	return c
}

// TestCatalogOpen tests open/create behavior.
func TestCatalogOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates the database when allowed", func(t *testing.T) {
		t.Parallel()
		openTestCatalog(t)
	})

	t.Run("refuses to open a missing database when creation is off", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing catalog")
		}
	})
}

// TestCatalogRuns tests run lifecycle recording.
func TestCatalogRuns(t *testing.T) {
	t.Parallel()

	c := openTestCatalog(t)
	ctx := context.Background()

	runID := uuid.NewString()
	if err := c.BeginRun(ctx, runID, "bulk", model.ModeInfo); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.FinishRun(ctx, runID, 3, 4500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := c.Summarize(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Runs != 1 {
		t.Errorf("got %d runs, expected 1", summary.Runs)
	}
	if summary.LastRunAt == "" {
		t.Error("expected a last-run timestamp")
	}
}

// TestCatalogRecords tests record upserts.
func TestCatalogRecords(t *testing.T) {
	t.Parallel()

	c := openTestCatalog(t)
	ctx := context.Background()
	runID := uuid.NewString()

	if err := c.RecordPersisted(ctx, "CVE-2024-0001", model.ModeInfo, "/data/x.json", []byte(`{"a":1}`), runID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Re-persisting the same identifier must update, not duplicate.
	if err := c.RecordPersisted(ctx, "CVE-2024-0001", model.ModeInfo, "/data/x.json", []byte(`{"a":2}`), runID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.RecordPersisted(ctx, "CVE-2024-0002", model.ModeInfo, "/data/y.json", []byte(`{"b":1}`), runID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := c.Summarize(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Records != 2 {
		t.Errorf("got %d records, expected 2", summary.Records)
	}
}

// TestCatalogReferences tests reference-outcome aggregation.
func TestCatalogReferences(t *testing.T) {
	t.Parallel()

	c := openTestCatalog(t)
	ctx := context.Background()
	runID := uuid.NewString()

	entries := []model.ReferenceEntry{
		model.InlineReference("https://a.example", "body"),
		model.InlineReference("https://b.example", "body"),
		model.StatusReference("https://c.example", 404),
		model.FailedReference("https://d.example"),
	}
	if err := c.RecordReferences(ctx, "CVE-2024-0001", entries, runID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := c.Summarize(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.ReferencesByKind["inline"] != 2 {
		t.Errorf("got %d inline, expected 2", summary.ReferencesByKind["inline"])
	}
	if summary.ReferencesByKind["status"] != 1 {
		t.Errorf("got %d status, expected 1", summary.ReferencesByKind["status"])
	}
	if summary.ReferencesByKind["failed"] != 1 {
		t.Errorf("got %d failed, expected 1", summary.ReferencesByKind["failed"])
	}
}
