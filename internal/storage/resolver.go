package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cve-tools/cvemirror/internal/model"
)

// Resolver derives the on-disk location for a record identifier.
// The mapping is a pure function of the identifier, so reprocessing the
// same record always targets the same file and collisions are impossible.
// No other component constructs record paths independently.
type Resolver struct {
	// root is the storage root all paths are derived under.
	root string
}

// NewResolver creates a Resolver rooted at the given directory.
func NewResolver(root string) *Resolver {
	return &Resolver{root: root}
}

// Root returns the storage root.
func (r *Resolver) Root() string { return r.root }

// Resolve returns the base path for a record identifier:
//
//	<root>/<year>/<seq[0:2]>/<seq[2:4]>/<PREFIX>-<year>-<%06d seq>
//
// It creates the three-level directory prefix if absent; the create is
// idempotent and safe under concurrent use. Callers append an extension
// (.json, .jsonl) or a reference suffix (-<n>, -<n>.txt) as needed.
// Returns model.ErrMalformedIdentifier for identifiers that do not parse.
func (r *Resolver) Resolve(rawID string) (string, error) {
	id, err := model.ParseIdentifier(rawID)
	if err != nil {
		return "", err
	}

	padded := id.PaddedSequence()
	dir := filepath.Join(r.root, id.Year(), padded[:2], padded[2:4])
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("create record directory %s: %w", dir, err)
	}

	return filepath.Join(dir, id.String()), nil
}
