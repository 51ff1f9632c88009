package crawler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBaseURL is returned by Crawl when the base URL cannot be
	// parsed, is not http(s), or has no host. It is the only error that
	// stops a crawl before it starts.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrRootNotFetched is returned by Crawl when the root document was
	// pruned, so there is no tree to return.
	ErrRootNotFetched = errors.New("root document could not be fetched")

	// ErrUnresolvable is returned by Resolve when a link candidate is neither
	// an absolute URL nor a reference that resolves against the base.
	ErrUnresolvable = errors.New("unresolvable link")
)

// FetchError reports a failed fetch of a single URL.
// The crawl treats it as a pruned branch, not as a crawl failure.
type FetchError struct {
	// URL is the URL that was requested.
	URL string

	// Err is the underlying transport or read error.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError is the FetchError cause used when HTTP error pruning is enabled
// and the server answered with a status code of 400 or above.
type StatusError struct {
	// Code is the HTTP status code.
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}
