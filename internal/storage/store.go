package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cve-tools/cvemirror/internal/model"
)

// Store durably persists records using the Resolver's path derivation.
//
// Persistence strategy is mode-dependent: info mode overwrites a single
// JSON document per identifier (last write wins, full replace), changes
// mode appends one JSON line per event to a per-identifier log that is
// never rewritten. Reprocessing a delta window in changes mode may
// therefore duplicate lines; the source does not deduplicate and neither
// do we.
type Store struct {
	resolver *Resolver
	mode     model.Mode
}

// NewStore creates a Store for the given mode.
func NewStore(resolver *Resolver, mode model.Mode) *Store {
	return &Store{resolver: resolver, mode: mode}
}

// Persist writes the record to its derived path and returns that path
// (without extension). All failures, including unresolvable identifiers,
// are wrapped in ErrPersist: they are fatal to the calling batch and must
// not be silently skipped.
func (s *Store) Persist(rec model.Record) (string, error) {
	id, err := rec.Identifier(s.mode)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersist, err)
	}

	base, err := s.resolver.Resolve(id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersist, err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %v", ErrPersist, id, err)
	}

	if s.mode == model.ModeChanges {
		if err := appendLine(base+".jsonl", data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrPersist, err)
		}
		return base, nil
	}

	if err := os.WriteFile(base+".json", data, 0600); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return base, nil
}

// appendLine appends data plus a trailing newline and syncs before close,
// so a crash cannot leave the previous successful append unflushed.
func appendLine(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600) //nolint:gosec // path derived from the resolver
	if err != nil {
		return err
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
