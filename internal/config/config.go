package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/cve-tools/cvemirror/internal/model"
)

// Default configuration values.
// The pacing defaults (request interval, update interval) follow the
// values NIST suggests for unauthenticated NVD API consumers; the rest
// match the behavior of the original crawler this mirror replaces.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "cvemirror"

	// DefaultInfoEndpoint serves full CVE records.
	DefaultInfoEndpoint = "https://services.nvd.nist.gov/rest/json/cves/2.0"

	// DefaultChangesEndpoint serves CVE change-history events.
	DefaultChangesEndpoint = "https://services.nvd.nist.gov/rest/json/cvehistory/2.0"

	// DefaultRequestTimeout is generous because bulk pages carry up to
	// 5000 records and the API is slow under load.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultRequestInterval is the pause between successful page
	// requests. Six seconds is the rate NIST suggests for clients
	// without an API key.
	DefaultRequestInterval = 6 * time.Second

	// DefaultUpdateInterval is the sleep between incremental update
	// cycles. Two hours matches the NVD feed refresh cadence.
	DefaultUpdateInterval = 7200 * time.Second

	// DefaultRetryInterval is the pause after a failed page request.
	// Failures are usually rate limiting, so the backoff is long.
	DefaultRetryInterval = 600 * time.Second

	// DefaultRetryLimit is how many consecutive failures one page may
	// accumulate before it is quarantined and skipped permanently.
	DefaultRetryLimit = 9

	// DefaultReferenceTimeout bounds each external reference fetch.
	// References are best-effort; slow hosts must not stall the crawl.
	DefaultReferenceTimeout = 3 * time.Second

	// DefaultInlineLimit is the textual reference size above which the
	// body is streamed to a side file instead of stored inline. 5MB
	// keeps record documents reviewable in an editor.
	DefaultInlineLimit = 5 * 1024 * 1024 // 5MB

	// DefaultInfoPageSize is the page size the info endpoint serves.
	DefaultInfoPageSize = 2000

	// DefaultChangesPageSize is the page size the history endpoint serves.
	DefaultChangesPageSize = 5000

	// DefaultUserAgent identifies cvemirror in HTTP requests so API
	// operators can attribute the traffic.
	DefaultUserAgent = "cvemirror/1.0 (+https://github.com/cve-tools/cvemirror)"
)

// Config holds all options for one mirror process. It is populated from
// defaults, then the optional config file, then CLI flags, and passed
// through the application by dependency injection rather than globals.
type Config struct {
	// StorageRoot is the directory the mirror writes into. One mirror
	// process owns one storage root; there is no cross-process locking.
	StorageRoot string

	// Mode selects the endpoint, page size and persistence strategy.
	// Must be model.ModeInfo or model.ModeChanges.
	Mode model.Mode

	// InfoEndpoint and ChangesEndpoint are the remote API URLs. They are
	// overridable so tests and private mirrors can point elsewhere.
	InfoEndpoint    string
	ChangesEndpoint string

	// RequestTimeout bounds each API request.
	RequestTimeout time.Duration

	// RequestInterval is the pause between successful page requests
	// (rate-limit politeness toward the remote source).
	RequestInterval time.Duration

	// UpdateInterval is the idle time between incremental update cycles.
	UpdateInterval time.Duration

	// RetryInterval is the pause after a failed page request.
	RetryInterval time.Duration

	// RetryLimit is the consecutive-failure count after which a page is
	// quarantined. The counter is per page, not per process.
	RetryLimit int

	// ReferenceTimeout bounds each external reference fetch.
	ReferenceTimeout time.Duration

	// InlineLimit is the textual reference size threshold in bytes.
	InlineLimit int64

	// UserAgent is sent with every outbound request.
	UserAgent string

	// CatalogDir is the directory holding the sqlite catalog. Empty
	// disables the catalog; the mirror itself does not depend on it.
	CatalogDir string

	// Once makes the mirror command exit after the bulk catch-up instead
	// of entering the incremental update loop.
	Once bool

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// ConfigFilePath is an explicit config file location. If empty, the
	// default search order is used (cwd, then home directory).
	ConfigFilePath string
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be wrong; this constructor
// also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		StorageRoot:      filepath.Join(XDGDataDir(), "mirror"),
		Mode:             model.ModeInfo,
		InfoEndpoint:     DefaultInfoEndpoint,
		ChangesEndpoint:  DefaultChangesEndpoint,
		RequestTimeout:   DefaultRequestTimeout,
		RequestInterval:  DefaultRequestInterval,
		UpdateInterval:   DefaultUpdateInterval,
		RetryInterval:    DefaultRetryInterval,
		RetryLimit:       DefaultRetryLimit,
		ReferenceTimeout: DefaultReferenceTimeout,
		InlineLimit:      DefaultInlineLimit,
		UserAgent:        DefaultUserAgent,
		CatalogDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for cvemirror
// (~/.local/share/cvemirror on Linux).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Endpoint returns the API endpoint selected by the mode.
func (c *Config) Endpoint() string {
	if c.Mode == model.ModeChanges {
		return c.ChangesEndpoint
	}
	return c.InfoEndpoint
}

// PageSize returns the bulk page size the selected endpoint serves.
func (c *Config) PageSize() int {
	if c.Mode == model.ModeChanges {
		return DefaultChangesPageSize
	}
	return DefaultInfoPageSize
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flag parsing, before any crawling begins; an
// invalid mode is the only hard startup failure the daemon has.
func (c *Config) Validate() error {
	if _, err := model.ParseMode(c.Mode.String()); err != nil {
		return err
	}

	if c.StorageRoot == "" {
		return ErrNoStorageRoot
	}

	if c.RequestTimeout <= 0 || c.ReferenceTimeout <= 0 {
		return ErrInvalidTimeout
	}

	// Intervals of zero are allowed (useful in tests); negative is not.
	if c.RequestInterval < 0 || c.UpdateInterval < 0 || c.RetryInterval < 0 {
		return ErrInvalidInterval
	}

	if c.RetryLimit <= 0 {
		return ErrInvalidRetryLimit
	}

	if c.InlineLimit <= 0 {
		return ErrInvalidInlineLimit
	}

	if c.InfoEndpoint == "" || c.ChangesEndpoint == "" {
		return ErrNoEndpoint
	}

	return nil
}
