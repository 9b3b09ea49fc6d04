package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// State file names under the storage root. These names are part of the
// on-disk contract; external tooling reads them directly.
const (
	// cursorFileName holds the decimal bulk-crawl offset.
	cursorFileName = ".index.txt"
	// watermarkFileName holds the ISO-8601 incremental-update boundary.
	watermarkFileName = ".last_timestamp.txt"
	// missingIndexesFileName holds newline-separated cursor values that
	// were permanently skipped after exhausting retries.
	missingIndexesFileName = "missing_indexes.txt"
)

// State manages the crash-resume files of one storage root. Losing
// in-memory retry counters on a crash is acceptable; these files are the
// only durable crawl state.
type State struct {
	root string
}

// NewState creates a State for the given storage root, creating the root
// directory if absent.
func NewState(root string) (*State, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &State{root: root}, nil
}

// LoadCursor reads the persisted bulk-crawl cursor. A missing or
// unreadable file means the crawl starts from offset 0; a corrupt value
// is treated the same way rather than aborting startup.
func (s *State) LoadCursor() int {
	data, err := os.ReadFile(filepath.Join(s.root, cursorFileName))
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SaveCursor durably writes the cursor. It is called before each page
// request so a crash mid-request resumes at the same offset, at the cost
// of possibly reprocessing one page (persistence is idempotent).
func (s *State) SaveCursor(cursor int) error {
	return writeDurable(filepath.Join(s.root, cursorFileName), strconv.Itoa(cursor))
}

// LoadWatermark reads the persisted incremental-update boundary.
// An absent file returns the empty string; the updater initializes it.
func (s *State) LoadWatermark() string {
	data, err := os.ReadFile(filepath.Join(s.root, watermarkFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveWatermark durably writes the watermark.
func (s *State) SaveWatermark(ts string) error {
	return writeDurable(filepath.Join(s.root, watermarkFileName), ts)
}

// AppendMissingIndex records a cursor value that permanently failed after
// exhausting retries. Quarantined pages are never retried automatically;
// the log exists for out-of-band reprocessing.
func (s *State) AppendMissingIndex(cursor int) error {
	path := filepath.Join(s.root, missingIndexesFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600) //nolint:gosec // fixed name under the storage root
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", cursor); err != nil {
		_ = f.Close()
		return fmt.Errorf("append to %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return f.Close()
}

// MissingIndexes returns all quarantined cursor values in append order.
// An absent log means nothing was quarantined.
func (s *State) MissingIndexes() ([]int, error) {
	path := filepath.Join(s.root, missingIndexesFileName)
	f, err := os.Open(path) //nolint:gosec // fixed name under the storage root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	var indexes []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("corrupt entry %q in %s", line, path)
		}
		indexes = append(indexes, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return indexes, nil
}

// writeDurable replaces the file content and syncs before close, so the
// value is on disk before the next network call that depends on it.
func writeDurable(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600) //nolint:gosec // fixed name under the storage root
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	return f.Close()
}
