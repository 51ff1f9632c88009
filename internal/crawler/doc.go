// Package crawler builds a site tree by crawling a website from its root
// document.
//
// # Architecture
//
// The package is designed around the Spider type, which owns the recursive
// traversal. A crawl resolves each discovered link against the base URL,
// checks that it stays on the base host and has not been claimed yet, fetches
// it through a Fetcher, and, for HTML responses only, discovers the links of
// the fetched document and recurses into them.
//
// # Components
//
//   - Spider: depth-first traversal and tree assembly
//   - Resolve / ShouldFollow: URL resolution and visit eligibility
//   - VisitedSet: URLs claimed during one crawl
//   - DiscoverLinks / IsHTML: link discovery and content-type gating
//   - HTTPFetcher: the net/http backed Fetcher
//
// # Duplicate suppression
//
// A URL is added to the visited set as soon as it is found eligible, before
// it is fetched. A second reference to the same URL string, anywhere in the
// crawl, is ignored from the first encounter on. The comparison is on the
// exact resolved URL string; links that spell the same resource differently
// (a fragment, a default port, a different relative path) are crawled again.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(client, crawler.WithUserAgent("sitetree"))
//	spider := crawler.NewSpider(fetcher, crawler.WithLogger(logger))
//	root, err := spider.Crawl(ctx, "http://localhost:8080")
package crawler
