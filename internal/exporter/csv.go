// Package exporter persists pipeline batches as immutable, timestamp-suffixed
// CSV snapshots. Snapshots are the append-only interchange format between
// runs: once written they are never mutated, and a failed write must not
// leave a truncated artifact behind.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// timestampLayout matches the snapshot naming convention <prefix>_<timestamp>.<ext>
const timestampLayout = "20060102_150405"

// Writer writes snapshot artifacts into an append-only output directory
type Writer struct {
	dir    string
	ext    string
	logger *slog.Logger

	// now is swapped in tests to pin the timestamp suffix
	now func() time.Time
}

// Option configures a Writer
type Option func(*Writer)

// WithClock overrides the timestamp source used for snapshot names
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// NewWriter creates a snapshot writer for the given output directory
func NewWriter(dir, ext string, logger *slog.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{dir: dir, ext: ext, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteSnapshot serializes headers and rows into a uniquely named snapshot and
// returns its path. The rows are first written to a temporary file and linked
// into place so a mid-write failure never leaves a partial artifact. An
// already existing target is an error, never overwritten.
func (w *Writer) WriteSnapshot(prefix string, headers []string, rows [][]string) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s%s", prefix, w.now().Format(timestampLayout), w.ext)
	target := filepath.Join(w.dir, filename)

	tmp, err := os.CreateTemp(w.dir, filename+".tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeCSV(tmp, headers, rows); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write snapshot %s: %w", filename, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	// Link fails if the target exists, so a finished snapshot can never be
	// clobbered, even by a write racing between a stat and a rename.
	if err := os.Link(tmpName, target); err != nil {
		os.Remove(tmpName)
		if os.IsExist(err) {
			return "", fmt.Errorf("snapshot already exists: %s", target)
		}
		return "", fmt.Errorf("failed to finalize snapshot %s: %w", filename, err)
	}
	os.Remove(tmpName)

	w.logger.Info("snapshot written",
		slog.String("path", target),
		slog.Int("rows", len(rows)))

	return target, nil
}

// writeCSV writes the header row followed by the data rows
func writeCSV(f *os.File, headers []string, rows [][]string) error {
	cw := csv.NewWriter(f)

	if len(headers) > 0 {
		if err := cw.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
