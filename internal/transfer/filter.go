package transfer

import (
	"path/filepath"
	"strings"
)

// shouldIgnore matches every slash-separated segment of rel against the
// ignore globs, so "*.tmp" also hides directories named like that.
func shouldIgnore(rel string, ignoreList []string) bool {
	parts := strings.Split(filepath.ToSlash(rel), "/")

	for _, part := range parts {
		for _, pattern := range ignoreList {
			matched, err := filepath.Match(pattern, part)
			if err == nil && matched {
				return true
			}
		}
	}

	return false
}
