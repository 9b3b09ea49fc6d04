package report

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cve-tools/cvemirror/internal/database"
	"github.com/cve-tools/cvemirror/internal/model"
	"github.com/cve-tools/cvemirror/internal/storage"
)

// yearDirPattern matches the top-level year directories of a mirror tree.
var yearDirPattern = regexp.MustCompile(`^\d{4}$`)

// Collector assembles a MirrorStatus snapshot from a storage root and,
// optionally, the catalog database.
type Collector struct {
	root    string
	catalog *database.Catalog
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCatalog includes a catalog summary in collected snapshots.
func WithCatalog(c *database.Catalog) CollectorOption {
	return func(col *Collector) {
		col.catalog = c
	}
}

// NewCollector creates a Collector for the given storage root.
func NewCollector(root string, opts ...CollectorOption) *Collector {
	c := &Collector{root: root}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect walks the storage root and returns a point-in-time snapshot.
// Year directories are walked concurrently; the tree can hold hundreds
// of thousands of files and the per-year walks are independent.
func (c *Collector) Collect(ctx context.Context) (*model.MirrorStatus, error) {
	state, err := storage.NewState(c.root)
	if err != nil {
		return nil, err
	}

	missing, err := state.MissingIndexes()
	if err != nil {
		return nil, err
	}

	status := &model.MirrorStatus{
		StorageRoot:    c.root,
		GeneratedAt:    time.Now(),
		Cursor:         state.LoadCursor(),
		Watermark:      state.LoadWatermark(),
		MissingIndexes: missing,
		RecordsByYear:  make(map[string]int),
	}

	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("read storage root %s: %w", c.root, err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, entry := range entries {
		if !entry.IsDir() || !yearDirPattern.MatchString(entry.Name()) {
			continue
		}
		year := entry.Name()
		g.Go(func() error {
			records, refs, err := countYear(gctx, filepath.Join(c.root, year))
			if err != nil {
				return err
			}
			mu.Lock()
			status.RecordsByYear[year] = records
			status.RecordCount += records
			status.ReferenceFileCount += refs
			mu.Unlock()
			return nil
		})
	}

	if c.catalog != nil {
		g.Go(func() error {
			summary, err := c.catalog.Summarize(gctx)
			if err != nil {
				return fmt.Errorf("summarize catalog: %w", err)
			}
			mu.Lock()
			status.Catalog = summary
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return status, nil
}

// countYear counts record files and reference side files under one year
// directory. Everything that is not a .json or .jsonl record is an
// archived reference side file.
func countYear(ctx context.Context, dir string) (records, refs int, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".jsonl") {
			records++
			return nil
		}
		refs++
		return nil
	})
	return records, refs, err
}
