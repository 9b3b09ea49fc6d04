package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/cve-tools/cvemirror/internal/model"
	"github.com/cve-tools/cvemirror/internal/storage"
)

// textualTypes are Content-Type substrings treated as text. Textual
// bodies are charset-decoded to UTF-8 before storage; everything else is
// streamed verbatim.
var textualTypes = []string{"text", "json", "xml", "javascript", "x-www-form-urlencoded"}

// Archiver fetches external reference documents linked from CVE records.
// It shares the path derivation with the record store via the Resolver,
// so side files always sit next to their record.
type Archiver struct {
	// client performs the reference fetches. Injected so tests can point
	// at httptest servers and so transport settings stay in one place.
	client *http.Client

	// resolver derives the record path side files are named after.
	resolver *storage.Resolver

	// timeout bounds each individual reference fetch.
	timeout time.Duration

	// inlineLimit is the textual body size, in bytes, at or above which
	// the body is streamed to a side file instead of stored inline.
	inlineLimit int64

	// userAgent is sent with every reference request.
	userAgent string

	// logger records per-reference outcomes at debug level.
	logger *slog.Logger
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithTimeout sets the per-reference fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Archiver) {
		a.timeout = d
	}
}

// WithInlineLimit sets the textual inline size threshold in bytes.
func WithInlineLimit(limit int64) Option {
	return func(a *Archiver) {
		a.inlineLimit = limit
	}
}

// WithUserAgent sets the User-Agent header for reference requests.
func WithUserAgent(ua string) Option {
	return func(a *Archiver) {
		a.userAgent = ua
	}
}

// WithLogger sets the logger for per-reference outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) {
		a.logger = logger
	}
}

// NewArchiver creates an Archiver using the given HTTP client and path
// resolver.
func NewArchiver(client *http.Client, resolver *storage.Resolver, opts ...Option) *Archiver {
	a := &Archiver{
		client:      client,
		resolver:    resolver,
		timeout:     3 * time.Second,
		inlineLimit: 5 * 1024 * 1024, // 5MB
		userAgent:   "cvemirror/1.0",
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Archive resolves every reference URL of an info record into a typed
// entry, preserving input order. It never returns an error: a record with
// a malformed reference list, or one whose identifier cannot be resolved,
// is archived with no entries and persisted as-is by the caller.
func (a *Archiver) Archive(ctx context.Context, rec model.Record) []model.ReferenceEntry {
	urls, err := rec.ReferenceURLs()
	if err != nil {
		a.logger.Debug("record has no usable reference list", "error", err)
		return nil
	}
	if len(urls) == 0 {
		return nil
	}

	id, err := rec.Identifier(model.ModeInfo)
	if err != nil {
		a.logger.Debug("record has no identifier, skipping references", "error", err)
		return nil
	}
	base, err := a.resolver.Resolve(id)
	if err != nil {
		a.logger.Debug("cannot resolve record path, skipping references",
			"id", id, "error", err)
		return nil
	}

	entries := make([]model.ReferenceEntry, 0, len(urls))
	sideFiles := 0
	for _, u := range urls {
		entry := a.fetch(ctx, u, base, &sideFiles)
		a.logger.Debug("reference resolved",
			"id", id, "url", u, "kind", entry.Kind.String())
		entries = append(entries, entry)
	}
	return entries
}

// fetch resolves a single reference URL. sideFiles is the per-record side
// file counter; it advances only when a side file was written successfully.
func (a *Archiver) fetch(ctx context.Context, url, base string, sideFiles *int) model.ReferenceEntry {
	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return model.FailedReference(url)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return model.FailedReference(url)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort fetch

	if resp.StatusCode != http.StatusOK {
		return model.StatusReference(url, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isTextual(contentType) {
		// Binary bodies always become side files, regardless of size.
		path := fmt.Sprintf("%s-%d", base, *sideFiles)
		if err := writeStream(path, resp.Body); err != nil {
			return model.FailedReference(url)
		}
		*sideFiles++
		return model.ArchivedReference(url, path)
	}

	decoded, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		return model.FailedReference(url)
	}

	if resp.ContentLength >= 0 && resp.ContentLength >= a.inlineLimit {
		path := fmt.Sprintf("%s-%d.txt", base, *sideFiles)
		if err := writeStream(path, decoded); err != nil {
			return model.FailedReference(url)
		}
		*sideFiles++
		return model.ArchivedReference(url, path)
	}

	body, err := io.ReadAll(io.LimitReader(decoded, a.inlineLimit))
	if err != nil {
		return model.FailedReference(url)
	}

	// A body that fills the inline limit is at or over the threshold even
	// when the server omitted or understated Content-Length (chunked
	// encoding). Spill the buffered bytes plus the rest of the stream to a
	// side file rather than truncating silently.
	if int64(len(body)) >= a.inlineLimit {
		path := fmt.Sprintf("%s-%d.txt", base, *sideFiles)
		if err := writeStream(path, io.MultiReader(bytes.NewReader(body), decoded)); err != nil {
			return model.FailedReference(url)
		}
		*sideFiles++
		return model.ArchivedReference(url, path)
	}

	return model.InlineReference(url, string(body))
}

// writeStream copies r into a freshly created side file.
func writeStream(path string, r io.Reader) error {
	f, err := os.Create(path) //nolint:gosec // path derived from the resolver
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// isTextual reports whether the content type names a textual format.
func isTextual(contentType string) bool {
	for _, kw := range textualTypes {
		if strings.Contains(contentType, kw) {
			return true
		}
	}
	return false
}
