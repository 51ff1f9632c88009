package crawler

import (
	"context"
	"io"
	"net/http"
)

// DefaultMaxBodySize limits how much of a response body is read.
const DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// Fetcher retrieves a resource for the crawl.
//
// Fetch performs one request for target and returns the response body and
// its Content-Type header. Any failure is reported as an error; the crawl
// prunes the branch and carries on.
type Fetcher interface {
	Fetch(ctx context.Context, target string) (body []byte, contentType string, err error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, target string) ([]byte, string, error)

// Fetch calls f(ctx, target).
func (f FetcherFunc) Fetch(ctx context.Context, target string) ([]byte, string, error) {
	return f(ctx, target)
}

// HTTPFetcher is a Fetcher that issues GET requests with an http.Client.
//
// Redirects are handled by the client. The caller keeps using the URL it
// asked for, not the URL the redirect chain ended at.
type HTTPFetcher struct {
	// client performs the requests.
	client *http.Client

	// userAgent is the User-Agent header to send. Empty means the client default.
	userAgent string

	// headers are extra request headers.
	headers map[string]string

	// cookie is sent as the Cookie header when non-empty.
	cookie string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// pruneHTTPErrors turns responses with status >= 400 into fetch errors.
	pruneHTTPErrors bool
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sets extra request headers.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// WithCookie sets the Cookie header sent with every request.
// Format: "name=value" or "name1=value1; name2=value2".
func WithCookie(cookie string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per response.
// Values <= 0 keep the default.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithPruneHTTPErrors makes responses with status codes of 400 and above
// fail with a *StatusError instead of being crawled.
func WithPruneHTTPErrors(prune bool) FetcherOption {
	return func(f *HTTPFetcher) {
		f.pruneHTTPErrors = prune
	}
}

// NewHTTPFetcher creates an HTTPFetcher using client.
// A nil client is replaced with a zero http.Client.
func NewHTTPFetcher(client *http.Client, opts ...FetcherOption) *HTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}

	f := &HTTPFetcher{
		client:      client,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs a single GET request for target. There are no retries.
func (f *HTTPFetcher) Fetch(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", &FetchError{URL: target, Err: err}
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if f.pruneHTTPErrors && resp.StatusCode >= http.StatusBadRequest {
		return nil, "", &FetchError{URL: target, Err: &StatusError{Code: resp.StatusCode}}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, "", &FetchError{URL: target, Err: err}
	}

	return body, resp.Header.Get("Content-Type"), nil
}
