package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cve-tools/cvemirror/internal/model"
)

// TestResolverResolve tests deterministic path derivation.
func TestResolverResolve(t *testing.T) {
	t.Parallel()

	t.Run("derives year and sequence shard directories", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		r := NewResolver(root)

		path, err := r.Resolve("CVE-2021-34527")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := filepath.Join(root, "2021", "03", "45", "CVE-2021-034527")
		if path != expected {
			t.Errorf("got %q, expected %q", path, expected)
		}

		// The shard directory must exist after resolution.
		if _, err := os.Stat(filepath.Dir(path)); err != nil {
			t.Errorf("shard directory not created: %v", err)
		}
	})

	t.Run("resolution is a pure function of the identifier", func(t *testing.T) {
		t.Parallel()

		r := NewResolver(t.TempDir())

		first, err := r.Resolve("CVE-2020-943")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := r.Resolve("CVE-2020-000943")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != second {
			t.Errorf("got %q and %q, expected identical paths", first, second)
		}
	})

	t.Run("short sequences pad to six digits", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		r := NewResolver(root)

		path, err := r.Resolve("CVE-1999-7")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := filepath.Join(root, "1999", "00", "00", "CVE-1999-000007")
		if path != expected {
			t.Errorf("got %q, expected %q", path, expected)
		}
	})

	t.Run("rejects malformed identifiers", func(t *testing.T) {
		t.Parallel()

		r := NewResolver(t.TempDir())
		if _, err := r.Resolve("CVE-2021"); !errors.Is(err, model.ErrMalformedIdentifier) {
			t.Errorf("got %v, expected ErrMalformedIdentifier", err)
		}
	})
}
