package report

import (
	"io"

	"github.com/cve-tools/cvemirror/internal/model"
)

// Writer defines the interface for status output.
// Implementations write mirror status snapshots in various formats.
type Writer interface {
	// Write outputs the status snapshot to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(status *model.MirrorStatus) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously, such as
// both the terminal and a report file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the status to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(status *model.MirrorStatus) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(status)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for status writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
