package crawler

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cve-tools/cvemirror/internal/archive"
	"github.com/cve-tools/cvemirror/internal/database"
	"github.com/cve-tools/cvemirror/internal/model"
	"github.com/cve-tools/cvemirror/internal/storage"
)

// recordSink persists a single record and feeds the optional catalog.
// It is shared by the bulk Engine and the delta Updater so both paths
// archive references and index records identically.
type recordSink struct {
	mode     model.Mode
	store    *storage.Store
	archiver *archive.Archiver
	catalog  *database.Catalog
	logger   *slog.Logger
}

// save archives the record's references (info mode only), writes the
// record to the mirror tree, and updates the catalog. A persistence
// error is returned as-is; catalog failures are logged and swallowed
// because the catalog is derived data.
func (s *recordSink) save(ctx context.Context, rec model.Record, runID string) error {
	var entries []model.ReferenceEntry
	if s.mode == model.ModeInfo && s.archiver != nil {
		entries = s.archiver.Archive(ctx, rec)
		if len(entries) > 0 {
			rec.AttachReferences(entries)
		}
	}

	path, err := s.store.Persist(rec)
	if err != nil {
		return err
	}

	if s.catalog == nil {
		return nil
	}
	id, err := rec.Identifier(s.mode)
	if err != nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("catalog: marshal record", "id", id, "error", err)
		return nil
	}
	if err := s.catalog.RecordPersisted(ctx, id, s.mode, path, data, runID); err != nil {
		s.logger.Warn("catalog: index record", "id", id, "error", err)
	}
	if len(entries) > 0 {
		if err := s.catalog.RecordReferences(ctx, id, entries, runID); err != nil {
			s.logger.Warn("catalog: index references", "id", id, "error", err)
		}
	}
	return nil
}
