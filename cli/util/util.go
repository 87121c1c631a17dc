package util

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	tbinutil "github.com/wkalt/tbin/util"
)

// StdoutRedirected returns true if stdout is redirected to a file or pipe.
func StdoutRedirected() bool {
	if fi, err := os.Stdout.Stat(); err == nil {
		return (fi.Mode() & os.ModeCharDevice) == 0
	}
	return false
}

// ExpandFiles expands doublestar patterns against the filesystem. A pattern
// that names an existing file is taken literally. Results are deduplicated and
// sorted.
func ExpandFiles(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	for _, pattern := range patterns {
		if fi, err := os.Stat(pattern); err == nil && !fi.IsDir() {
			seen[filepath.Clean(pattern)] = true
			continue
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			seen[match] = true
		}
	}
	return tbinutil.Okeys(seen), nil
}

// MatchIDs returns the ids matching any of the doublestar patterns.
func MatchIDs(ids []string, patterns []string) ([]string, error) {
	seen := map[string]bool{}
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, doublestar.ErrBadPattern
		}
		for _, id := range ids {
			if ok, _ := doublestar.Match(pattern, id); ok {
				seen[id] = true
			}
		}
	}
	return tbinutil.Okeys(seen), nil
}
