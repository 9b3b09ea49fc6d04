package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/cve-tools/cvemirror/internal/archive"
	"github.com/cve-tools/cvemirror/internal/config"
	"github.com/cve-tools/cvemirror/internal/database"
	"github.com/cve-tools/cvemirror/internal/model"
	"github.com/cve-tools/cvemirror/internal/nvd"
	"github.com/cve-tools/cvemirror/internal/storage"
)

// Engine performs the bulk catch-up crawl: it walks the remote result
// set page by page from a durable cursor until the source reports that
// the requested offset is past the end.
type Engine struct {
	client        *nvd.Client
	state         *storage.State
	sink          recordSink
	logger        *slog.Logger
	mode          model.Mode
	pageSize      int
	retryLimit    int
	retryInterval time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithArchiver attaches a reference archiver. Only meaningful in info
// mode; change-history records carry no reference URLs.
func WithArchiver(a *archive.Archiver) EngineOption {
	return func(e *Engine) { e.sink.archiver = a }
}

// WithCatalog attaches the SQLite catalog. Catalog failures never abort
// a crawl.
func WithCatalog(c *database.Catalog) EngineOption {
	return func(e *Engine) { e.sink.catalog = c }
}

// WithPageSize overrides the page size used to advance the cursor. It
// must match the page size the client requests.
func WithPageSize(n int) EngineOption {
	return func(e *Engine) { e.pageSize = n }
}

// WithRetryLimit overrides how many times a failing page is attempted
// before it is quarantined.
func WithRetryLimit(n int) EngineOption {
	return func(e *Engine) { e.retryLimit = n }
}

// WithRetryInterval overrides the wait between attempts on a failing
// page.
func WithRetryInterval(d time.Duration) EngineOption {
	return func(e *Engine) { e.retryInterval = d }
}

// WithEngineLogger overrides the logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine returns an Engine crawling in the given mode.
func NewEngine(client *nvd.Client, store *storage.Store, state *storage.State, mode model.Mode, opts ...EngineOption) *Engine {
	e := &Engine{
		client:        client,
		state:         state,
		logger:        slog.Default(),
		mode:          mode,
		pageSize:      config.DefaultInfoPageSize,
		retryLimit:    config.DefaultRetryLimit,
		retryInterval: config.DefaultRetryInterval,
	}
	if mode == model.ModeChanges {
		e.pageSize = config.DefaultChangesPageSize
	}
	e.sink = recordSink{mode: mode, store: store}
	for _, opt := range opts {
		opt(e)
	}
	e.sink.logger = e.logger
	return e
}

// Run crawls from the persisted cursor to the end of the remote result
// set. The cursor is checkpointed before every request, so interrupting
// Run at any point resumes at the page that was in flight.
//
// A page that still fails after the retry budget is recorded in the
// missing-indexes log and skipped; the crawl keeps going. Errors from
// the local filesystem are fatal and returned immediately.
func (e *Engine) Run(ctx context.Context) error {
	runID := uuid.NewString()
	cursor := e.state.LoadCursor()
	e.logger.Info("bulk crawl starting", "mode", e.mode, "cursor", cursor, "run", runID)

	if e.sink.catalog != nil {
		if err := e.sink.catalog.BeginRun(ctx, runID, "bulk", e.mode); err != nil {
			e.logger.Warn("catalog: begin run", "error", err)
		}
	}

	var pages, records int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.state.SaveCursor(cursor); err != nil {
			return err
		}

		page, err := e.fetchPage(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Error("page quarantined after repeated failures",
				"cursor", cursor, "attempts", e.retryLimit, "error", err)
			if err := e.state.AppendMissingIndex(cursor); err != nil {
				return err
			}
			cursor += e.pageSize
			if err := sleepContext(ctx, e.retryInterval); err != nil {
				return err
			}
			continue
		}

		if page.Exhausted() {
			e.logger.Info("bulk crawl complete",
				"mode", e.mode, "pages", pages, "records", records, "total", page.TotalResults)
			e.finishRun(ctx, runID, pages, records)
			return nil
		}

		for _, rec := range page.Records {
			if err := e.sink.save(ctx, rec, runID); err != nil {
				return err
			}
		}
		pages++
		records += len(page.Records)
		e.logger.Info("page mirrored", "cursor", cursor, "records", len(page.Records), "total", page.TotalResults)
		cursor += e.pageSize
	}
}

// fetchPage requests one page, retrying transient failures with a
// constant backoff until the retry budget is exhausted.
func (e *Engine) fetchPage(ctx context.Context, cursor int) (*nvd.Page, error) {
	var page *nvd.Page
	op := func() error {
		p, err := e.client.FetchPage(ctx, cursor)
		if err != nil {
			return err
		}
		page = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		e.logger.Warn("page request failed", "cursor", cursor, "error", err, "retry_in", wait)
	}
	policy := backoff.WithContext(newRetryPolicy(e.retryInterval, e.retryLimit), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return page, nil
}

func (e *Engine) finishRun(ctx context.Context, runID string, pages, records int) {
	if e.sink.catalog == nil {
		return
	}
	if err := e.sink.catalog.FinishRun(ctx, runID, pages, records); err != nil {
		e.logger.Warn("catalog: finish run", "error", err)
	}
}

// sleepContext waits for d or until ctx is cancelled, whichever comes
// first. A non-positive duration returns immediately.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
