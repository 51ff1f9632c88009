package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/sitetree/internal/crawler"
	"github.com/nao1215/sitetree/internal/report"
	"github.com/nao1215/sitetree/internal/transport"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitetree"

	// DefaultBaseURL is the site crawled when no URL is given.
	DefaultBaseURL = "http://localhost:8080"

	// DefaultTimeout bounds each HTTP request, including reading the body.
	// It is not a limit on the whole crawl.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits the response body size read per resource.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultMaxDepth bounds recursion on pathological sites.
	DefaultMaxDepth = 256

	// DefaultFormat is the output format used when none is given.
	DefaultFormat = report.FormatText

	// projectURL is referenced from the User-Agent header so that site
	// operators can identify crawler traffic.
	projectURL = "https://github.com/nao1215/sitetree"
)

// DefaultUserAgent is the User-Agent used by development builds.
var DefaultUserAgent = UserAgentFor("dev")

// UserAgentFor returns the User-Agent header value for a release version.
func UserAgentFor(version string) string {
	return fmt.Sprintf("sitetree/%s (+%s)", version, projectURL)
}

// Config holds all configuration options for sitetree.
// It is populated from defaults, then the configuration file, then CLI flags,
// and passed through the application rather than kept in global state.
//
// Design decision: We use a single flat struct because the number of
// options is small and every option applies to the one crawl a run performs.
type Config struct {
	// BaseURL is the scheme and authority of the site to crawl.
	// Any path it carries is ignored for link resolution of the root,
	// which is always /index.html.
	BaseURL string

	// Timeout is the per-request timeout. Zero disables it.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// Cookie is a raw Cookie header value sent with every request.
	Cookie string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// MaxDepth limits how deep below the root the crawl recurses.
	// Zero means unlimited.
	MaxDepth int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Larger bodies are truncated.
	MaxBodySize int64

	// PruneHTTPErrors treats responses with status 400 or above as fetch
	// failures. When false, error pages are part of the tree.
	PruneHTTPErrors bool

	// Format is the output format: text, markdown or json.
	Format string

	// ReportFile is an optional file that receives a copy of the report.
	// Its format follows the file extension (see report.FormatForPath).
	ReportFile string

	// Verbose enables debug logging of every pruned branch.
	Verbose bool

	// LogJSON writes diagnostics as JSON lines instead of text.
	LogJSON bool

	// ConfigFilePath is the configuration file given on the command line.
	// Empty means the default search path is used.
	ConfigFilePath string

	// DBDir is the directory holding the crawl archive database.
	DBDir string

	// SaveToDB stores the crawl result in the archive after the crawl.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because most defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		Headers:     make(map[string]string),
		MaxDepth:    DefaultMaxDepth,
		MaxBodySize: DefaultMaxBodySize,
		Format:      DefaultFormat,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for sitetree.
// On Linux: ~/.local/share/sitetree
// On macOS: ~/Library/Application Support/sitetree
// On Windows: %LOCALAPPDATA%\sitetree
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitetree.
// On Linux: ~/.config/sitetree
// On macOS: ~/Library/Application Support/sitetree
// On Windows: %APPDATA%\sitetree
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found, wrapping one of the sentinel errors.
//
// Design decision: We validate once after flags and the config file are
// merged, so that a bad value fails before any request is sent.
func (c *Config) Validate() error {
	if _, err := crawler.ParseBaseURL(c.BaseURL); err != nil {
		return err
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Timeout)
	}

	if c.MaxBodySize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxBodySize, c.MaxBodySize)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxDepth, c.MaxDepth)
	}

	if !slices.Contains(report.Formats(), c.Format) {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Format)
	}

	if c.ProxyAddress != "" && !transport.IsValidProxyAddress(c.ProxyAddress) {
		return fmt.Errorf("%w: %q", ErrInvalidProxyAddress, c.ProxyAddress)
	}

	return nil
}
