package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cve-tools/cvemirror/internal/model"
)

// SimpleWriter outputs human-readable text status reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables per-year breakdowns in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with per-year breakdowns.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the status snapshot in human-readable format.
func (w *SimpleWriter) Write(status *model.MirrorStatus) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, status)
	w.writeCrawlState(&sb, status)
	w.writeHoldings(&sb, status)
	w.writeCatalog(&sb, status)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with snapshot information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, status *model.MirrorStatus) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         MIRROR STATUS\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Storage Root: %s\n", status.StorageRoot))
	sb.WriteString(fmt.Sprintf("Generated:    %s\n", status.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString("\n")
}

// writeCrawlState writes the durable crawl state section.
func (w *SimpleWriter) writeCrawlState(sb *strings.Builder, status *model.MirrorStatus) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL STATE\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Cursor:            %d\n", status.Cursor))
	if status.Watermark == "" {
		sb.WriteString("  Watermark:         (not initialized)\n")
	} else {
		sb.WriteString(fmt.Sprintf("  Watermark:         %s\n", status.Watermark))
	}
	sb.WriteString(fmt.Sprintf("  Quarantined pages: %d\n", status.QuarantinedPages()))

	if w.verbose && len(status.MissingIndexes) > 0 {
		for _, idx := range status.MissingIndexes {
			sb.WriteString(fmt.Sprintf("    [!] offset %d\n", idx))
		}
	}
	sb.WriteString("\n")
}

// writeHoldings writes the on-disk holdings section.
func (w *SimpleWriter) writeHoldings(sb *strings.Builder, status *model.MirrorStatus) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("HOLDINGS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Records:         %d\n", status.RecordCount))
	sb.WriteString(fmt.Sprintf("  Reference files: %d\n", status.ReferenceFileCount))

	if w.verbose && len(status.RecordsByYear) > 0 {
		sb.WriteString("\n")
		years := make([]string, 0, len(status.RecordsByYear))
		for year := range status.RecordsByYear {
			years = append(years, year)
		}
		sort.Strings(years)
		for _, year := range years {
			sb.WriteString(fmt.Sprintf("    %s: %d\n", year, status.RecordsByYear[year]))
		}
	}
	sb.WriteString("\n")
}

// writeCatalog writes the catalog summary section, if a catalog exists.
func (w *SimpleWriter) writeCatalog(sb *strings.Builder, status *model.MirrorStatus) {
	if status.Catalog == nil {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CATALOG\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Indexed records: %d\n", status.Catalog.Records))
	sb.WriteString(fmt.Sprintf("  Recorded runs:   %d\n", status.Catalog.Runs))
	if status.Catalog.LastRunAt != "" {
		sb.WriteString(fmt.Sprintf("  Last run:        %s\n", status.Catalog.LastRunAt))
	}

	if len(status.Catalog.ReferencesByKind) > 0 {
		sb.WriteString("\n  References by kind:\n")
		kinds := make([]string, 0, len(status.Catalog.ReferencesByKind))
		for kind := range status.Catalog.ReferencesByKind {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			sb.WriteString(fmt.Sprintf("    %-9s %d\n", kind+":", status.Catalog.ReferencesByKind[kind]))
		}
	}
	sb.WriteString("\n")
}
