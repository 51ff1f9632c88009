// Package report renders site trees.
//
// Render produces the canonical indented listing: one node per line, each
// name prefixed by one space per level below the root. The Writer
// implementations wrap a complete crawl in an output format:
//   - TextWriter: the indented listing, nothing else
//   - MarkdownWriter: a summary table, the listing and a per-resource table
//   - JSONWriter: the SiteTree envelope for tool integration
//
// Design decision: Rendering lives apart from the model package so that new
// output formats never touch the tree types.
package report
