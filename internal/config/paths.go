package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains the resolved directory layout for a pipeline run.
// This is the single source of truth for all file locations.
type Paths struct {
	DataDir       string
	RawDir        string
	NormalizedDir string
	AggregatedDir string
	StateDir      string
	LogsDir       string

	// WindowSeedFile holds the persisted per-symbol trailing-close windows
	// used to carry metric computations across incremental batches.
	WindowSeedFile string
}

// NewPaths resolves the configured directories into absolute paths. Relative
// subdirectories are resolved against the data directory; a relative data
// directory is resolved against the current working directory.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}

	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(dataDir, dir)
	}

	p := &Paths{
		DataDir:       dataDir,
		RawDir:        resolve(cfg.RawDir),
		NormalizedDir: resolve(cfg.NormalizedDir),
		AggregatedDir: resolve(cfg.AggregatedDir),
		StateDir:      resolve(cfg.StateDir),
		LogsDir:       resolve(cfg.LogsDir),
	}
	p.WindowSeedFile = filepath.Join(p.StateDir, "window_seed.json")

	return p, nil
}

// EnsureDirectories creates all pipeline directories that do not yet exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.DataDir,
		p.RawDir,
		p.NormalizedDir,
		p.AggregatedDir,
		p.StateDir,
		p.LogsDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetLogPath returns the path for a log file in the logs directory
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}
