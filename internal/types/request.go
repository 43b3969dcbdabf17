package types

import (
	"fmt"
	"net/http"
	"net/url"
)

// Page kinds, used to tag requests for logging and metrics.
const (
	TagRoot = "root"
	TagEra  = "era"
	TagPoet = "poet"
	TagPoem = "poem"
)

// Request represents a single GET to be issued by the fetcher.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Headers are extra HTTP headers to send with the request.
	Headers http.Header

	// Tag categorizes this request (root, era, poet, poem).
	Tag string
}

// NewRequest creates a new Request for rawURL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}

	return &Request{
		URL:     u,
		Headers: make(http.Header),
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}
