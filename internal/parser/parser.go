// Package parser holds the selection policy for each kind of page on the
// site: which elements carry eras, poets, poem links and verses. Extraction
// is best-effort: a missing element yields an empty result, never an error.
package parser

import (
	"net/url"
	"strings"
)

// resolve turns href into an absolute URL against base. The second return
// is false when href cannot be parsed.
func resolve(base *url.URL, href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

// hasClass reports whether a space-separated class attribute contains name.
func hasClass(classAttr, name string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == name {
			return true
		}
	}
	return false
}
