package storage

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// illegalChars are the characters that cannot appear in a file or
// directory name on common filesystems.
const illegalChars = `\/:*?"<>|`

// MaxNameBytes caps a sanitized name, leaving room under the usual 255-byte
// filename limit for a collision suffix and the ".json" extension.
const MaxNameBytes = 200

// SanitizeName strips filesystem-illegal characters from name and trims
// surrounding whitespace. A name made only of dots ("." or "..") would
// escape the crawl tree and comes back empty. The result may be empty.
func SanitizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalChars, r) {
			return -1
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	if strings.Trim(cleaned, ".") == "" {
		return ""
	}
	return cleaned
}

// TruncateName shortens name to at most maxBytes bytes without splitting a
// UTF-8 sequence, then trims trailing whitespace.
func TruncateName(name string, maxBytes int) string {
	if len(name) <= maxBytes {
		return name
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return strings.TrimRightFunc(name[:cut], unicode.IsSpace)
}
