package config

import (
	"errors"

	"github.com/nao1215/sitetree/internal/crawler"
	"github.com/nao1215/sitetree/internal/report"
)

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while the wrapped message
// still names the offending value.
var (
	// ErrInvalidBaseURL is returned when the base URL is not an absolute
	// http or https URL with a host. It is the crawler's own sentinel, so
	// a URL that passes Validate is one the crawler accepts.
	ErrInvalidBaseURL = crawler.ErrInvalidBaseURL

	// ErrInvalidTimeout is returned when the timeout is negative.
	// Zero disables the per-request timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidMaxDepth is returned when the max depth is negative.
	// Zero means unlimited.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrUnknownFormat is returned when the output format is not one of
	// report.Formats.
	ErrUnknownFormat = report.ErrUnknownFormat

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is
	// not in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")
)
