// Package config provides configuration structures and utilities for sitetree.
// It defines the crawl settings, the optional YAML configuration file and the
// XDG directories the tool reads from and writes to.
package config
