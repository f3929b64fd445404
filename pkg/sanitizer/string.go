// Package sanitizer normalizes free-text input before validation and storage.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims surrounding whitespace and collapses internal runs
// of whitespace into single spaces.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeTitle(title string) string {
	return TrimAndNormalize(title)
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeReason keeps line breaks out of decision reasons so the audit
// trail renders as single-line entries.
func NormalizeReason(reason string) string {
	return TrimAndNormalize(reason)
}
