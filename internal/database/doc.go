// Package database provides the SQLite crawl archive for sitetree.
//
// Each saved crawl is one row holding the base URL, the crawl timestamps,
// summary counts and the site tree encoded as JSON. The archive is only
// written after a crawl finishes and read by the history command; a crawl
// never consults it.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. The archive is a single file under the XDG data directory
// 2. The CGO-free driver keeps cross-compilation trivial
// 3. WAL mode lets history queries run while a crawl is being saved
package database
