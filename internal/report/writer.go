package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nao1215/sitetree/internal/model"
)

// Output formats accepted by NewWriter.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats returns the supported output format names.
func Formats() []string {
	return []string{FormatText, FormatMarkdown, FormatJSON}
}

// Writer defines the interface for site tree output.
type Writer interface {
	// Write outputs the crawl result to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(tree *model.SiteTree) (int, error)
}

// NewWriter returns the Writer for the named format.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case FormatText:
		return NewTextWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q (expected one of %s)",
			ErrUnknownFormat, format, strings.Join(Formats(), ", "))
	}
}

// FormatForPath picks the output format for a report file from its
// extension: ".md" and ".markdown" give markdown, ".json" gives JSON and
// anything else gives text. The extension is matched case-insensitively.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown
	case ".json":
		return FormatJSON
	default:
		return FormatText
	}
}

// MultiWriter writes to multiple Writers in turn.
// The CLI uses it to send one crawl to stdout and to a report file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the tree to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(tree *model.SiteTree) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(tree)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Render writes the tree rooted at root in pre-order, one node per line.
// Each name is prefixed by exactly one space per level, the root having
// none. Children appear in their stored order. A nil root writes nothing.
func Render(w io.Writer, root *model.Node) error {
	bw := bufio.NewWriter(w)

	var err error
	root.Walk(func(n *model.Node, level int) bool {
		if err != nil {
			return false
		}
		if _, err = bw.WriteString(strings.Repeat(" ", level)); err != nil {
			return false
		}
		if _, err = bw.WriteString(n.Name); err != nil {
			return false
		}
		_, err = bw.WriteString("\n")
		return err == nil
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// RenderString returns the rendering of root as a string.
func RenderString(root *model.Node) string {
	var sb strings.Builder
	_ = Render(&sb, root) // strings.Builder never fails
	return sb.String()
}
