package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cve-tools/cvemirror/internal/config"
	"github.com/cve-tools/cvemirror/internal/database"
	"github.com/cve-tools/cvemirror/internal/report"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report the state of a mirror storage root",
		Long: `Status inspects a mirror storage root and reports its crawl state
(cursor, watermark, quarantined pages) and holdings (record count,
archived reference files), plus a catalog summary when the sqlite
catalog is present.

Examples:
  # Report on the default storage root
  cvemirror status

  # Report on a specific storage root as JSON
  cvemirror status --storage /var/lib/cvemirror/mirror --json

  # Write a Markdown report to a file (also printed to stdout)
  cvemirror status --markdown -o status.md`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	cmd.Flags().StringP("storage", "s", "",
		"Storage root directory (default: XDG data directory)")
	cmd.Flags().String("catalog", "",
		"Catalog directory (default: XDG data directory)")
	cmd.Flags().Bool("no-catalog", false,
		"Skip the catalog summary")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Also write the report to the specified file path")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	root, err := cmd.Flags().GetString("storage")
	if err != nil {
		return err
	}
	if root == "" {
		root = filepath.Join(config.XDGDataDir(), "mirror")
	}

	catalogDir, err := cmd.Flags().GetString("catalog")
	if err != nil {
		return err
	}
	if catalogDir == "" {
		catalogDir = config.XDGDataDir()
	}

	noCatalog, err := cmd.Flags().GetBool("no-catalog")
	if err != nil {
		return err
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if asJSON && asMarkdown {
		return fmt.Errorf("--json and --markdown are mutually exclusive")
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	var collectorOpts []report.CollectorOption
	if !noCatalog {
		// A missing catalog is normal (it is optional); only include the
		// summary when the database can actually be opened.
		catalog, err := database.Open(catalogDir, database.Options{EnableWAL: true})
		if err == nil {
			defer catalog.Close() //nolint:errcheck // read-only summary access
			collectorOpts = append(collectorOpts, report.WithCatalog(catalog))
		}
	}

	status, err := report.NewCollector(root, collectorOpts...).Collect(cmd.Context())
	if err != nil {
		return err
	}

	writers := []report.Writer{newStatusWriter(cmd.OutOrStdout(), cmd, asJSON, asMarkdown)}
	if outputPath != "" {
		if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}
		f, err := os.Create(outputPath) //nolint:gosec // user-provided output path is intentional
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close() //nolint:errcheck // flushed by the writer below
		writers = append(writers, newStatusWriter(f, cmd, asJSON, asMarkdown))
	}

	if _, err := report.NewMultiWriter(writers...).Write(status); err != nil {
		return fmt.Errorf("failed to write status report: %w", err)
	}
	return nil
}

// newStatusWriter selects the report writer for the requested format.
func newStatusWriter(out io.Writer, cmd *cobra.Command, asJSON, asMarkdown bool) report.Writer {
	switch {
	case asJSON:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case asMarkdown:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(getVerboseFlag(cmd)))
	}
}
