package workspace

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover walks rootPath and returns the absolute paths of all files
// matching options, sorted.
//
// **Performance:** O(n) where n is total number of files in tree.
// Excluded directories are never entered.
func Discover(rootPath string, options ScanOptions, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := validatePatterns(options); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Walk error", "path", path, "error", err)
			return nil // Continue walking
		}

		relPath := relSlash(absRoot, path)

		// Check exclusions (directories and files)
		if relPath != "." && matchAny(options.Exclude, relPath) {
			if d.IsDir() {
				return filepath.SkipDir // Skip entire directory
			}
			return nil // Skip file
		}

		// Only process files (not directories)
		if d.IsDir() {
			return nil
		}

		// Check include patterns
		if len(options.Include) > 0 && !matchAny(options.Include, relPath) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether path (absolute or relative to rootPath) would be
// picked up by Discover with options.
func Matches(rootPath, path string, options ScanOptions) bool {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(absRoot, path)
	}
	relPath := relSlash(absRoot, path)
	if matchAny(options.Exclude, relPath) {
		return false
	}
	return len(options.Include) == 0 || matchAny(options.Include, relPath)
}

func validatePatterns(options ScanOptions) error {
	for _, pattern := range options.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range options.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	return nil
}

// relSlash returns path relative to root with forward slashes, for
// pattern matching.
func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

func matchAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if m, _ := doublestar.Match(pattern, relPath); m {
			return true
		}
	}
	return false
}
