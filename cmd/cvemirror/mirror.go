package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cve-tools/cvemirror/internal/archive"
	"github.com/cve-tools/cvemirror/internal/config"
	"github.com/cve-tools/cvemirror/internal/crawler"
	"github.com/cve-tools/cvemirror/internal/database"
	"github.com/cve-tools/cvemirror/internal/log"
	"github.com/cve-tools/cvemirror/internal/model"
	"github.com/cve-tools/cvemirror/internal/nvd"
	"github.com/cve-tools/cvemirror/internal/storage"
)

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Run the mirror daemon",
		Long: `Mirror crawls the NVD API into a local directory tree and keeps it current.

The daemon first pages through the full result set from its persisted
cursor (a crash or restart resumes where it left off), then enters a
loop of periodic incremental updates driven by a persisted timestamp
watermark. In info mode the external reference documents cited by each
record are archived alongside it.

Examples:
  # Mirror full CVE records into the default storage root
  cvemirror mirror

  # Mirror the change-history event stream into a separate tree
  cvemirror mirror --mode changes --storage /var/lib/cvemirror/changes

  # Catch up and run a single incremental update, then exit
  cvemirror mirror --once

  # Use a custom configuration file
  cvemirror mirror -c myconfig.yaml`,
		Args: cobra.NoArgs,
		RunE: runMirrorCmd,
	}

	cmd.Flags().StringP("mode", "m", model.ModeInfo.String(),
		`Crawl mode: "info" (full records) or "changes" (change history)`)
	cmd.Flags().StringP("storage", "s", "",
		"Storage root directory (default: XDG data directory)")

	// Pacing flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultRequestTimeout,
		"Timeout for each API request")
	cmd.Flags().DurationP("interval", "i", config.DefaultRequestInterval,
		"Pause between successful page requests")
	cmd.Flags().Duration("update-interval", config.DefaultUpdateInterval,
		"Idle time between incremental update cycles")
	cmd.Flags().Duration("retry-interval", config.DefaultRetryInterval,
		"Pause after a failed page request")
	cmd.Flags().IntP("retries", "r", config.DefaultRetryLimit,
		"Failures after which a page is quarantined and skipped")
	cmd.Flags().Duration("reference-timeout", config.DefaultReferenceTimeout,
		"Timeout for each external reference fetch (info mode)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .cvemirror in current or home directory)")

	// Catalog and lifecycle flags
	cmd.Flags().Bool("no-catalog", false,
		"Disable the sqlite catalog")
	cmd.Flags().Bool("once", false,
		"Exit after the bulk catch-up and one incremental update")

	return cmd
}

// runMirrorCmd executes the mirror command.
func runMirrorCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runMirror(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the config file and cobra flags.
// Precedence: defaults, then the config file, then explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	explicitPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = explicitPath

	// Load the config file if one exists. An explicitly named file that
	// is missing is an error; a missing default file is not.
	configPath := config.FindConfigFile(explicitPath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := file.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	} else if explicitPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
	}

	// Flags override the file only when the user actually set them.
	if cmd.Flags().Changed("mode") {
		raw, err := cmd.Flags().GetString("mode")
		if err != nil {
			return nil, err
		}
		mode, err := model.ParseMode(raw)
		if err != nil {
			return nil, err
		}
		cfg.Mode = mode
	}

	if cmd.Flags().Changed("storage") {
		cfg.StorageRoot, err = cmd.Flags().GetString("storage")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("timeout") {
		cfg.RequestTimeout, err = cmd.Flags().GetDuration("timeout")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("interval") {
		cfg.RequestInterval, err = cmd.Flags().GetDuration("interval")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("update-interval") {
		cfg.UpdateInterval, err = cmd.Flags().GetDuration("update-interval")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("retry-interval") {
		cfg.RetryInterval, err = cmd.Flags().GetDuration("retry-interval")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("retries") {
		cfg.RetryLimit, err = cmd.Flags().GetInt("retries")
		if err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("reference-timeout") {
		cfg.ReferenceTimeout, err = cmd.Flags().GetDuration("reference-timeout")
		if err != nil {
			return nil, err
		}
	}

	noCatalog, err := cmd.Flags().GetBool("no-catalog")
	if err != nil {
		return nil, err
	}
	if noCatalog {
		cfg.CatalogDir = ""
	}

	cfg.Once, err = cmd.Flags().GetBool("once")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runMirror wires the components together and runs the daemon.
func runMirror(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	state, err := storage.NewState(cfg.StorageRoot)
	if err != nil {
		return err
	}
	resolver := storage.NewResolver(cfg.StorageRoot)
	store := storage.NewStore(resolver, cfg.Mode)

	// The catalog is derived data: failure to open it degrades the
	// mirror to filesystem-only operation rather than aborting.
	var catalog *database.Catalog
	if cfg.CatalogDir != "" {
		if err := os.MkdirAll(cfg.CatalogDir, 0750); err != nil {
			logger.Warn("catalog directory unavailable, continuing without catalog",
				"dir", cfg.CatalogDir, "error", err)
		} else if catalog, err = database.Open(cfg.CatalogDir, database.DefaultOptions()); err != nil {
			logger.Warn("catalog unavailable, continuing without catalog",
				"dir", cfg.CatalogDir, "error", err)
			catalog = nil
		} else {
			defer catalog.Close() //nolint:errcheck // best-effort close on shutdown
			logger.Info("catalog opened", "dir", cfg.CatalogDir)
		}
	}

	client := nvd.NewClient(cfg.Endpoint(), cfg.Mode,
		nvd.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		nvd.WithRequestInterval(cfg.RequestInterval),
		nvd.WithUserAgent(cfg.UserAgent),
	)

	var archiver *archive.Archiver
	if cfg.Mode == model.ModeInfo {
		archiver = archive.NewArchiver(&http.Client{}, resolver,
			archive.WithTimeout(cfg.ReferenceTimeout),
			archive.WithInlineLimit(cfg.InlineLimit),
			archive.WithUserAgent(cfg.UserAgent),
			archive.WithLogger(logger),
		)
	}

	engineOpts := []crawler.EngineOption{
		crawler.WithPageSize(cfg.PageSize()),
		crawler.WithRetryLimit(cfg.RetryLimit),
		crawler.WithRetryInterval(cfg.RetryInterval),
		crawler.WithEngineLogger(logger),
	}
	updaterOpts := []crawler.UpdaterOption{
		crawler.WithUpdaterLogger(logger),
	}
	if archiver != nil {
		engineOpts = append(engineOpts, crawler.WithArchiver(archiver))
		updaterOpts = append(updaterOpts, crawler.WithUpdaterArchiver(archiver))
	}
	if catalog != nil {
		engineOpts = append(engineOpts, crawler.WithCatalog(catalog))
		updaterOpts = append(updaterOpts, crawler.WithUpdaterCatalog(catalog))
	}

	engine := crawler.NewEngine(client, store, state, cfg.Mode, engineOpts...)
	updater := crawler.NewUpdater(client, store, state, cfg.Mode, updaterOpts...)
	scheduler := crawler.NewScheduler(engine, updater, cfg.UpdateInterval,
		crawler.WithSchedulerLogger(logger),
		crawler.WithOnce(cfg.Once),
	)

	logger.Info("mirror starting",
		"mode", cfg.Mode,
		"storage", cfg.StorageRoot,
		"endpoint", cfg.Endpoint(),
		"once", cfg.Once,
	)

	if err := scheduler.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("mirror stopped")
			return nil
		}
		return err
	}
	return nil
}
