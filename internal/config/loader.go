package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name searched for in the
// current and home directories.
const DefaultConfigFile = ".sitetree"

// xdgConfigFile is the configuration file name inside XDGConfigDir.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the sitetree configuration file.
// Every field is optional; unset fields leave the defaults untouched.
type File struct {
	// URL is the base URL of the site to crawl.
	URL string `yaml:"url,omitempty"`

	// Timeout is the per-request timeout, e.g. "30s".
	Timeout *time.Duration `yaml:"timeout,omitempty"`

	// UserAgent replaces the default User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Cookie is a raw Cookie header value.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Proxy is a SOCKS5 proxy address in "host:port" format.
	Proxy string `yaml:"proxy,omitempty"`

	// MaxDepth limits the recursion depth. 0 means unlimited, so a pointer
	// distinguishes it from an absent value.
	MaxDepth *int `yaml:"maxDepth,omitempty"`

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty"`

	// PruneHTTPErrors drops resources answered with status 400 or above.
	PruneHTTPErrors bool `yaml:"pruneHTTPErrors,omitempty"`

	// DBDir is the crawl archive directory. Setting it enables saving.
	DBDir string `yaml:"dbDir,omitempty"`

	// Format is the output format: text, markdown or json.
	Format string `yaml:"format,omitempty"`

	// Output is a file that receives a copy of the report.
	Output string `yaml:"output,omitempty"`

	// LogJSON writes diagnostics as JSON lines.
	LogJSON bool `yaml:"logJSON,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound. Unknown keys are
// rejected so that typos do not silently fall back to defaults. An empty
// file is valid and changes nothing.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cf File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &cf, nil
}

// Apply copies every field set in the file onto cfg.
func (cf *File) Apply(cfg *Config) {
	if cf.URL != "" {
		cfg.BaseURL = cf.URL
	}
	if cf.Timeout != nil {
		cfg.Timeout = *cf.Timeout
	}
	if cf.UserAgent != "" {
		cfg.UserAgent = cf.UserAgent
	}
	if len(cf.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(cf.Headers))
		}
		for k, v := range cf.Headers {
			cfg.Headers[k] = v
		}
	}
	if cf.Cookie != "" {
		cfg.Cookie = cf.Cookie
	}
	if cf.Proxy != "" {
		cfg.ProxyAddress = cf.Proxy
	}
	if cf.MaxDepth != nil {
		cfg.MaxDepth = *cf.MaxDepth
	}
	if cf.MaxBodySize != 0 {
		cfg.MaxBodySize = cf.MaxBodySize
	}
	if cf.PruneHTTPErrors {
		cfg.PruneHTTPErrors = true
	}
	if cf.DBDir != "" {
		cfg.DBDir = cf.DBDir
		cfg.SaveToDB = true
	}
	if cf.Format != "" {
		cfg.Format = cf.Format
	}
	if cf.Output != "" {
		cfg.ReportFile = cf.Output
	}
	if cf.LogJSON {
		cfg.LogJSON = true
	}
}

// FindConfigFile locates the configuration file.
//
// If configPath is given it must exist, otherwise ErrConfigNotFound is
// returned. Without it the search order is:
//  1. .sitetree in the current directory
//  2. config.yaml in XDGConfigDir
//  3. .sitetree in the user's home directory
//
// An empty path with a nil error means no file was found, which is not an
// error: the defaults apply.
func FindConfigFile(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return configPath, nil
	}
	return firstExisting(searchPaths()), nil
}

// searchPaths returns the implicit configuration file locations in order.
func searchPaths() []string {
	paths := make([]string, 0, 3)

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	paths = append(paths, filepath.Join(XDGConfigDir(), xdgConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}

	return paths
}

// firstExisting returns the first path that exists as a regular file,
// or "" if none does.
func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}
