package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/cve-tools/cvemirror/internal/model"
)

// MarkdownWriter outputs status snapshots in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the status snapshot in Markdown format.
func (w *MarkdownWriter) Write(status *model.MirrorStatus) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, status)
	w.writeCrawlState(md, status)
	w.writeHoldings(md, status)
	w.writeCatalog(md, status)

	return len(md.String()), md.Build()
}

// writeHeader writes the snapshot header table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, status *model.MirrorStatus) {
	md.H1("Mirror Status")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Storage Root", "`" + status.StorageRoot + "`"},
			{"Generated", status.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")
}

// writeCrawlState writes the durable crawl state section.
func (w *MarkdownWriter) writeCrawlState(md *markdown.Markdown, status *model.MirrorStatus) {
	md.H2("Crawl State")
	md.PlainText("")

	watermark := status.Watermark
	if watermark == "" {
		watermark = "(not initialized)"
	}

	md.Table(markdown.TableSet{
		Header: []string{"State", "Value"},
		Rows: [][]string{
			{"Cursor", strconv.Itoa(status.Cursor)},
			{"Watermark", watermark},
			{"Quarantined pages", strconv.Itoa(status.QuarantinedPages())},
		},
	})
	md.PlainText("")

	// Alert on quarantined pages: they are never retried automatically.
	if n := status.QuarantinedPages(); n > 0 {
		md.Warningf(
			"%d page(s) were quarantined after exhausting retries and need out-of-band reprocessing.",
			n,
		)
		md.PlainText("")
	}
}

// writeHoldings writes the on-disk holdings section.
func (w *MarkdownWriter) writeHoldings(md *markdown.Markdown, status *model.MirrorStatus) {
	md.H2("Holdings")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Holdings", "Count"},
		Rows: [][]string{
			{"Records", strconv.Itoa(status.RecordCount)},
			{"Reference files", strconv.Itoa(status.ReferenceFileCount)},
		},
	})
	md.PlainText("")

	if len(status.RecordsByYear) == 0 {
		return
	}

	years := make([]string, 0, len(status.RecordsByYear))
	for year := range status.RecordsByYear {
		years = append(years, year)
	}
	sort.Strings(years)

	rows := make([][]string, 0, len(years))
	for _, year := range years {
		rows = append(rows, []string{year, strconv.Itoa(status.RecordsByYear[year])})
	}

	md.H3("Records by Year")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Year", "Records"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeCatalog writes the catalog summary section, if a catalog exists.
func (w *MarkdownWriter) writeCatalog(md *markdown.Markdown, status *model.MirrorStatus) {
	if status.Catalog == nil {
		return
	}

	md.H2("Catalog")
	md.PlainText("")

	lastRun := status.Catalog.LastRunAt
	if lastRun == "" {
		lastRun = "-"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Catalog", "Value"},
		Rows: [][]string{
			{"Indexed records", strconv.Itoa(status.Catalog.Records)},
			{"Recorded runs", strconv.Itoa(status.Catalog.Runs)},
			{"Last run", lastRun},
		},
	})
	md.PlainText("")

	if len(status.Catalog.ReferencesByKind) > 0 {
		w.writeReferenceChart(md, status.Catalog.ReferencesByKind)
	}
}

// writeReferenceChart writes a mermaid pie chart of reference outcomes.
func (w *MarkdownWriter) writeReferenceChart(md *markdown.Markdown, byKind map[string]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Reference Archive Outcomes"),
		piechart.WithShowData(true),
	)

	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	for _, kind := range kinds {
		if byKind[kind] > 0 {
			chart.LabelAndIntValue(kind, uint64(byKind[kind]))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}
