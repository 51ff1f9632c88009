package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseBaseURL parses the URL a crawl is scoped to.
// The URL must be absolute, use http or https, and name a host.
func ParseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBaseURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidBaseURL, raw)
	}
	return u, nil
}

// Resolve turns a link candidate into an absolute URL.
//
// A candidate with its own scheme is used as is. Anything else is resolved
// as a reference against base following RFC 3986, which inherits the scheme
// and host and removes "." and ".." segments. Relative candidates are always
// resolved against base, not against the document they were found in.
//
// Empty candidates, which come from elements missing their link attribute,
// and strings that do not parse as URL references fail with ErrUnresolvable.
// No other normalization is done.
func Resolve(base *url.URL, raw string) (*url.URL, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrUnresolvable)
	}

	ref, err := url.Parse(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnresolvable, raw, err)
	}
	if ref.IsAbs() {
		return ref, nil
	}
	return base.ResolveReference(ref), nil
}

// ShouldFollow reports whether target is eligible to be crawled: it must be
// on the same host as base and must not have been visited yet.
//
// Only the host name is compared: the port is ignored, so
// http://example.test:9090/ is on the same host as http://example.test.
// Names are compared as written, without case folding or IDNA conversion.
func ShouldFollow(base, target *url.URL, visited VisitedSet) bool {
	return target.Hostname() == base.Hostname() && !visited.Contains(target)
}

// VisitedSet holds the URLs claimed during one crawl, keyed by their exact
// string form.
type VisitedSet map[string]struct{}

// NewVisitedSet creates an empty VisitedSet.
func NewVisitedSet() VisitedSet {
	return make(VisitedSet)
}

// Add records u as visited.
func (v VisitedSet) Add(u *url.URL) {
	v[u.String()] = struct{}{}
}

// Contains reports whether u has been recorded.
func (v VisitedSet) Contains(u *url.URL) bool {
	_, ok := v[u.String()]
	return ok
}

// Len returns the number of recorded URLs.
func (v VisitedSet) Len() int {
	return len(v)
}

// nodeName returns the name a crawled URL gets in the tree.
func nodeName(u *url.URL) string {
	if p := u.EscapedPath(); p != "" {
		return p
	}
	return "/"
}
