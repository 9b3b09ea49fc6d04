package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cve-tools/cvemirror/internal/model"
)

// TestLoadConfigFile tests YAML loading and the not-found sentinel.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads a full override file", func(t *testing.T) {
		t.Parallel()

		content := `
storageRoot: /srv/cve
mode: changes
endpoints:
  info: http://localhost:8080/cves
  changes: http://localhost:8080/history
requestInterval: 1s
retryInterval: 30s
retryLimit: 3
catalogDir: off
`
		path := filepath.Join(t.TempDir(), ".cvemirror")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		if err := cf.Apply(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.StorageRoot != "/srv/cve" {
			t.Errorf("got %q, expected /srv/cve", cfg.StorageRoot)
		}
		if cfg.Mode != model.ModeChanges {
			t.Errorf("got mode %q, expected changes", cfg.Mode)
		}
		if cfg.ChangesEndpoint != "http://localhost:8080/history" {
			t.Errorf("got %q, expected override endpoint", cfg.ChangesEndpoint)
		}
		if cfg.RequestInterval != time.Second {
			t.Errorf("got %v, expected 1s", cfg.RequestInterval)
		}
		if cfg.RetryLimit != 3 {
			t.Errorf("got %d, expected 3", cfg.RetryLimit)
		}
		if cfg.CatalogDir != "" {
			t.Errorf("got %q, expected catalog disabled", cfg.CatalogDir)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("got %v, expected ErrConfigNotFound", err)
		}
	})

	t.Run("invalid yaml returns an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".cvemirror")
		if err := os.WriteFile(path, []byte("mode: [unclosed"), 0600); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})
}

// TestFileApply tests override validation.
func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("rejects an unknown mode", func(t *testing.T) {
		t.Parallel()

		cf := &File{Mode: "everything"}
		if err := cf.Apply(NewConfig()); !errors.Is(err, model.ErrInvalidMode) {
			t.Errorf("got %v, expected ErrInvalidMode", err)
		}
	})

	t.Run("rejects an unparsable duration", func(t *testing.T) {
		t.Parallel()

		cf := &File{RetryInterval: "ten minutes"}
		if err := cf.Apply(NewConfig()); err == nil {
			t.Error("expected error for bad duration")
		}
	})

	t.Run("empty file keeps defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		expected := *cfg
		if err := (&File{}).Apply(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *cfg != expected {
			t.Errorf("empty file must not change the config")
		}
	})
}

// TestFindConfigFile tests explicit-path resolution.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("mode: info\n"), 0600); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("got %q, expected %q", got, path)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("got %q, expected empty string", got)
		}
	})
}
