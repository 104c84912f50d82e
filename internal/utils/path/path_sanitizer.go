// Package pathutils normalizes user supplied file system paths.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
)

const homeDirectoryPrefixConstant = "~"

// PathSanitizer trims, expands and deduplicates path candidates.
type PathSanitizer struct {
	homeDirectoryResolver func() (string, error)
}

// NewPathSanitizer constructs a PathSanitizer that expands "~" using the current user's home directory.
func NewPathSanitizer() *PathSanitizer {
	return &PathSanitizer{homeDirectoryResolver: os.UserHomeDir}
}

// Sanitize normalizes candidates, dropping blanks and duplicates while keeping order.
// It returns nil when nothing remains.
func (sanitizer *PathSanitizer) Sanitize(candidates []string) []string {
	var sanitized []string
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		normalized := sanitizer.SanitizePath(candidate)
		if len(normalized) == 0 {
			continue
		}
		if _, duplicate := seen[normalized]; duplicate {
			continue
		}
		seen[normalized] = struct{}{}
		sanitized = append(sanitized, normalized)
	}
	return sanitized
}

// SanitizePath trims candidate, expands a leading "~" and cleans the result. Blank input yields "".
func (sanitizer *PathSanitizer) SanitizePath(candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed == homeDirectoryPrefixConstant || strings.HasPrefix(trimmed, homeDirectoryPrefixConstant+string(filepath.Separator)) {
		if homeDirectory, homeError := sanitizer.homeDirectoryResolver(); homeError == nil && len(homeDirectory) > 0 {
			trimmed = filepath.Join(homeDirectory, strings.TrimPrefix(trimmed, homeDirectoryPrefixConstant))
		}
	}
	return filepath.Clean(trimmed)
}
