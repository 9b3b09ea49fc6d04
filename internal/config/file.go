package config

import (
	"fmt"
	"time"

	"github.com/cve-tools/cvemirror/internal/model"
)

// File represents the structure of the .cvemirror configuration file.
// All fields are optional; absent fields keep their current value.
// Durations are written as Go duration strings ("6s", "2h"), which keeps
// the YAML readable and unambiguous.
type File struct {
	// StorageRoot overrides the mirror output directory.
	StorageRoot string `yaml:"storageRoot,omitempty"`

	// Mode overrides the crawl mode ("info" or "changes").
	Mode string `yaml:"mode,omitempty"`

	// Endpoints override the remote API URLs, e.g. to point the daemon
	// at a private mirror or a test server.
	Endpoints struct {
		Info    string `yaml:"info,omitempty"`
		Changes string `yaml:"changes,omitempty"`
	} `yaml:"endpoints,omitempty"`

	// RequestTimeout, RequestInterval, UpdateInterval and RetryInterval
	// override the corresponding pacing options.
	RequestTimeout  string `yaml:"requestTimeout,omitempty"`
	RequestInterval string `yaml:"requestInterval,omitempty"`
	UpdateInterval  string `yaml:"updateInterval,omitempty"`
	RetryInterval   string `yaml:"retryInterval,omitempty"`

	// RetryLimit overrides the per-page quarantine threshold.
	RetryLimit int `yaml:"retryLimit,omitempty"`

	// UserAgent overrides the outbound User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// CatalogDir overrides the sqlite catalog directory. The literal
	// value "off" disables the catalog.
	CatalogDir string `yaml:"catalogDir,omitempty"`
}

// catalogOff disables the catalog when used as CatalogDir.
const catalogOff = "off"

// Apply overlays the file's settings onto a Config. Invalid values
// (unknown mode, unparsable duration) are reported rather than ignored
// so a typo in the file does not silently fall back to defaults.
func (f *File) Apply(c *Config) error {
	if f.StorageRoot != "" {
		c.StorageRoot = f.StorageRoot
	}

	if f.Mode != "" {
		mode, err := model.ParseMode(f.Mode)
		if err != nil {
			return err
		}
		c.Mode = mode
	}

	if f.Endpoints.Info != "" {
		c.InfoEndpoint = f.Endpoints.Info
	}
	if f.Endpoints.Changes != "" {
		c.ChangesEndpoint = f.Endpoints.Changes
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"requestTimeout", f.RequestTimeout, &c.RequestTimeout},
		{"requestInterval", f.RequestInterval, &c.RequestInterval},
		{"updateInterval", f.UpdateInterval, &c.UpdateInterval},
		{"retryInterval", f.RetryInterval, &c.RetryInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		*d.dst = parsed
	}

	if f.RetryLimit != 0 {
		c.RetryLimit = f.RetryLimit
	}

	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}

	if f.CatalogDir != "" {
		if f.CatalogDir == catalogOff {
			c.CatalogDir = ""
		} else {
			c.CatalogDir = f.CatalogDir
		}
	}

	return nil
}
