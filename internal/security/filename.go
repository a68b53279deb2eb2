// Package security holds input hygiene helpers for names that end up on
// disk.
package security

import "strings"

const maxFilenameLen = 128

// SanitizeFilename turns an arbitrary label into a safe file name stem.
// Runs of characters other than ASCII letters, digits, '.', '_' and '-'
// become one underscore; leading and trailing dots and underscores are
// dropped. An empty result is "unknown".
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxFilenameLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
