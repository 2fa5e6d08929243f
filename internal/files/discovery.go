// Package files locates pipeline artifacts on disk. The extraction
// collaborator drops timestamp-suffixed snapshots into the raw directory;
// discovery selects the most recently modified one matching the configured
// naming convention.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoInputFile is returned when no artifact matches the naming convention.
var ErrNoInputFile = fmt.Errorf("no matching input file found")

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations rooted at a base directory
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindByPrefix finds all files in dir whose name starts with prefix and ends
// with ext, sorted by modification time (oldest first).
func (d *Discovery) FindByPrefix(dir, prefix, ext string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})

	return files, nil
}

// LatestByPrefix returns the most recently modified file matching the naming
// convention, or ErrNoInputFile when nothing matches.
func (d *Discovery) LatestByPrefix(dir, prefix, ext string) (FileInfo, error) {
	files, err := d.FindByPrefix(dir, prefix, ext)
	if err != nil {
		return FileInfo{}, err
	}
	if len(files) == 0 {
		return FileInfo{}, fmt.Errorf("%w: prefix %q ext %q in %s", ErrNoInputFile, prefix, ext, dir)
	}
	return files[len(files)-1], nil
}
