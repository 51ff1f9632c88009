// Package model defines the data structures shared by the crawler, the report
// writers and the crawl archive.
//
// This package contains the following main types:
//   - Node: one crawled resource and the resources it links to
//   - SiteTree: a finished crawl, the root Node plus crawl metadata
//
// Design decision: We keep models in their own package so that crawler,
// report and database can all depend on them without importing each other.
//
// The models are serializable to JSON for report output and archive storage.
package model
