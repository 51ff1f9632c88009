// Package transport builds the HTTP clients sitetree crawls with.
//
// A Client either dials target hosts directly or routes every connection
// through an upstream SOCKS5 proxy (for example an SSH tunnel or a Tor
// daemon's SOCKS port). The proxy is reached with golang.org/x/net/proxy.
//
// The package is designed to be used with dependency injection: create a
// Client, build an *http.Client from it, and hand that to the crawler's
// fetcher rather than relying on http.DefaultClient.
package transport
