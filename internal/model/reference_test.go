package model

import (
	"encoding/json"
	"testing"
)

// TestReferenceEntryValue tests kind-dependent value selection.
func TestReferenceEntryValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		entry    ReferenceEntry
		expected any
	}{
		{"inline text", InlineReference("https://a.example", "body"), "body"},
		{"archived path", ArchivedReference("https://a.example", "/data/CVE-2024-000001-0.txt"), "/data/CVE-2024-000001-0.txt"},
		{"status code", StatusReference("https://a.example", 503), 503},
		{"error marker", FailedReference("https://a.example"), "Error with the request"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.entry.Value(); got != tt.expected {
				t.Errorf("got %v, expected %v", got, tt.expected)
			}
		})
	}
}

// TestReferenceKindString tests the kind names used in the catalog.
func TestReferenceKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind     ReferenceKind
		expected string
	}{
		{ReferenceInline, "inline"},
		{ReferenceArchived, "archived"},
		{ReferenceStatus, "status"},
		{ReferenceFailed, "failed"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("got %q, expected %q", got, tt.expected)
		}
	}
}

// TestReferenceEntryMarshalJSON tests the persisted tuple shape.
func TestReferenceEntryMarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("status entry marshals as [url, code]", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(StatusReference("https://a.example", 404))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := `["https://a.example",404]`
		if string(data) != expected {
			t.Errorf("got %s, expected %s", data, expected)
		}
	})

	t.Run("failed entry marshals with the error marker", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(FailedReference("https://a.example"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := `["https://a.example","Error with the request"]`
		if string(data) != expected {
			t.Errorf("got %s, expected %s", data, expected)
		}
	})
}
