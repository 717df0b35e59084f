package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// FileInfo represents a regular file found during a scan
type FileInfo struct {
	Path    string // Absolute path
	RelPath string // Relative path from root
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
}

// Warning records an entry that was skipped without aborting the scan
type Warning struct {
	Path string
	Err  error
}

// Walker walks local files with exclude pattern support.
// Symbolic links are never followed: entries are examined with lstat
// semantics, so a link to a directory does not cause a descent and a
// link to a file is not reported as a regular file.
type Walker struct {
	root     string
	excludes []string
}

// NewWalker creates a new file walker
func NewWalker(root string, excludes []string) (*Walker, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("get absolute path: %w", err)
	}

	// Validate root exists and is a directory
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", absRoot)
	}

	return &Walker{
		root:     absRoot,
		excludes: excludes,
	}, nil
}

// Walk walks the file tree and returns matching regular files in
// canonical (path-sorted) order. Unreadable entries are collected as
// warnings and never abort the walk.
func (w *Walker) Walk() ([]FileInfo, []Warning, error) {
	var files []FileInfo
	var warnings []Warning

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directory or entry: record and keep going.
			warnings = append(warnings, Warning{Path: path, Err: err})
			return nil
		}

		// Skip directories and anything that is not a regular file
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		// Get relative path
		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return fmt.Errorf("get relative path: %w", err)
		}

		// Convert to forward slashes for pattern matching
		relPathForward := filepath.ToSlash(relPath)

		// Check excludes
		if w.isExcluded(relPathForward) {
			return nil
		}

		// Get file info
		info, err := d.Info()
		if err != nil {
			// File vanished between readdir and stat
			warnings = append(warnings, Warning{Path: path, Err: err})
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			RelPath: relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		})

		return nil
	})

	if err != nil {
		return nil, warnings, fmt.Errorf("walk directory: %w", err)
	}

	// Canonical order: downstream keeper selection relies on it
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, warnings, nil
}

// isExcluded checks if a path matches any exclude pattern
func (w *Walker) isExcluded(path string) bool {
	for _, pattern := range w.excludes {
		// Handle directory patterns (ending with /)
		if strings.HasSuffix(pattern, "/") {
			// Check if path is under this directory
			dirPattern := strings.TrimSuffix(pattern, "/")
			if matched, _ := doublestar.Match(dirPattern, path); matched {
				return true
			}
			// Also check if any parent directory matches
			parts := strings.Split(path, "/")
			for i := 1; i <= len(parts); i++ {
				subPath := strings.Join(parts[:i], "/")
				if matched, _ := doublestar.Match(dirPattern, subPath); matched {
					return true
				}
			}
		} else {
			// Regular file pattern
			if matched, _ := doublestar.Match(pattern, path); matched {
				return true
			}
		}
	}
	return false
}
