// Package main provides the entry point for the sitetree CLI.
//
// sitetree crawls a website starting at /index.html, follows every link to
// the same host found in a, link, script and img elements, and prints the
// resulting tree with one space of indentation per level.
//
// Usage:
//
//	sitetree [--url <URL>]
//
// See the subcommands for configuration files and the crawl archive.
package main

// main is the entry point for sitetree.
func main() {
	Execute()
}
